package validators

import "go.mongodb.org/mongo-driver/bson"

// hexID is a reference to another document stored as its hex ObjectID.
var hexID = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}

var timeOfDay = bson.M{
	"bsonType": "string",
	"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
}
