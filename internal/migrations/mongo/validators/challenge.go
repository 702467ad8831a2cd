package validators

import "go.mongodb.org/mongo-driver/bson"

var ChallengeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"venue_id",
			"challenger_id",
			"booking_id",
			"date",
			"status",
			"cancelled_by",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"venue_id":   hexID,
			"booking_id": hexID,

			"challenger_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"accepted",
					"cancelled",
				},
			},

			"accepted_by": bson.M{
				"bsonType": "string",
			},

			// $addToSet fails on a null field
			"cancelled_by": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
