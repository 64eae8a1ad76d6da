package mongostore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// docID is a document _id. New documents use UUID strings; documents created by the
// earlier service carry ObjectIDs, which decode to their hex form.
type docID string

// UnmarshalBSONValue accepts a string or an ObjectID
func (id *docID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*id = docID(raw.StringValue())
	case bsontype.ObjectID:
		*id = docID(raw.ObjectID().Hex())
	default:
		return fmt.Errorf("unsupported _id type: %s", t)
	}
	return nil
}

// idFilter matches id stored as a string, or as an ObjectID when id is its hex form
func idFilter(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$in": bson.A{id, oid}}
	}
	return id
}
