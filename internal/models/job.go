package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Keys managed by the server. Clients cannot set them through a job body.
const (
	JobKeyID       = "_id"
	JobKeyPostedBy = "postedBy"
	JobKeyCreateAt = "createAt"
)

// Job is a posting. Apart from the poster and the creation time its content
// is whatever the client sent; those fields live at the top level of both the
// stored document and the JSON representation.
type Job struct {
	ID       bson.ObjectID `bson:"_id,omitempty"`
	PostedBy string        `bson:"postedBy"`
	CreateAt time.Time     `bson:"createAt"`
	Fields   bson.M        `bson:",inline"`
}

func (j Job) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(j.Fields)+3)
	for k, v := range j.Fields {
		out[k] = plainValue(v)
	}
	if !j.ID.IsZero() {
		out[JobKeyID] = j.ID.Hex()
	}
	out[JobKeyPostedBy] = j.PostedBy
	if !j.CreateAt.IsZero() {
		out[JobKeyCreateAt] = j.CreateAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads postedBy and keeps every other non-reserved key in
// Fields. A client-supplied _id or createAt is dropped.
func (j *Job) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*j = Job{}
	if s, ok := raw[JobKeyPostedBy].(string); ok {
		j.PostedBy = s
	}
	j.Fields = StripReserved(raw)
	return nil
}

// plainValue turns driver types decoded into Fields into values that
// encoding/json renders the way clients sent them.
func plainValue(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = plainValue(e)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

// Title returns the job title under either of the keys clients use for it.
func (j *Job) Title() string {
	for _, k := range []string{"jobTitle", "title"} {
		if s, ok := j.Fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// StripReserved returns a copy of fields without the server-managed keys.
func StripReserved(fields map[string]any) bson.M {
	out := make(bson.M, len(fields))
	for k, v := range fields {
		switch k {
		case JobKeyID, JobKeyPostedBy, JobKeyCreateAt:
			continue
		}
		out[k] = v
	}
	return out
}

// InsertResult mirrors the driver's insert acknowledgement.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type UpdateResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedCount int64  `json:"upsertedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
}
