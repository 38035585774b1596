package repository

import "go.mongodb.org/mongo-driver/bson"

// aggregationMatch generates a $match stage.
func aggregationMatch(condition bson.M) bson.D {
	return bson.D{bson.E{Key: "$match", Value: condition}}
}

// aggregationLookup generates a $lookup stage joining a foreign collection.
func aggregationLookup(from, localField, foreignField, as string) bson.D {
	return bson.D{bson.E{Key: "$lookup", Value: bson.M{
		"from":         from,
		"localField":   localField,
		"foreignField": foreignField,
		"as":           as,
	}}}
}

// aggregationUnwind generates an $unwind stage.
func aggregationUnwind(path string) bson.D {
	return bson.D{bson.E{Key: "$unwind", Value: path}}
}

// aggregationAddFields generates an $addFields stage.
func aggregationAddFields(fields bson.M) bson.D {
	return bson.D{bson.E{Key: "$addFields", Value: fields}}
}

// aggregationProject generates a $project stage.
func aggregationProject(fields bson.M) bson.D {
	return bson.D{bson.E{Key: "$project", Value: fields}}
}

// aggregationSort generates a $sort stage.
func aggregationSort(fields bson.D) bson.D {
	return bson.D{bson.E{Key: "$sort", Value: fields}}
}
