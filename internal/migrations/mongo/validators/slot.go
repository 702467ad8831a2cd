package validators

import "go.mongodb.org/mongo-driver/bson"

var SlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"venue_id",
			"date",
			"start_time",
			"end_time",
			"is_reserved",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"venue_id": hexID,

			"date": bson.M{
				"bsonType": "date",
			},

			"start_time": timeOfDay,
			"end_time":   timeOfDay,

			"is_reserved": bson.M{
				"bsonType": "bool",
			},

			"reserved_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
