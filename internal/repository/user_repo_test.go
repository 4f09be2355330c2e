package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestQuotaFilter_Shape(t *testing.T) {
	f := quotaFilter("a@x.com", 2)

	assert.Equal(t, "a@x.com", f["email"])

	expr, ok := f["$expr"].(bson.M)
	require.True(t, ok)
	lt, ok := expr["$lt"].(bson.A)
	require.True(t, ok)
	require.Len(t, lt, 2)

	assert.Equal(t, bson.M{"$ifNull": bson.A{"$totalJobsPosted", 0}}, lt[0])
	assert.Equal(t, bson.M{"$add": bson.A{2, bson.M{"$ifNull": bson.A{"$paidJobCredits", 0}}}}, lt[1])
}

func TestQuotaFilter_Marshals(t *testing.T) {
	_, err := bson.Marshal(quotaFilter("a@x.com", 0))
	require.NoError(t, err)
}
