package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

const (
	collectionStudents = "students"
	collectionTeachers = "teachers"

	// accountsField lists the usernames provisioned for a teacher profile.
	accountsField = "accounts"
)

// ProfileRepository implements ports.ProfileRepository on the students and
// teachers collections.
type ProfileRepository struct {
	students *mongo.Collection
	teachers *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{
		students: db.Collection(collectionStudents),
		teachers: db.Collection(collectionTeachers),
	}
}

func (r *ProfileRepository) UpsertStudent(ctx context.Context, studentID string, fields map[string]string) error {
	return upsert(ctx, r.students, bson.M{domain.FieldStudentID: studentID}, fields)
}

func (r *ProfileRepository) UpsertTeacher(ctx context.Context, name string, fields map[string]string) error {
	return upsert(ctx, r.teachers, bson.M{domain.FieldName: name}, fields)
}

func (r *ProfileRepository) TeacherAccounts(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc struct {
		Accounts []string `bson:"accounts"`
	}
	opts := options.FindOne().SetProjection(bson.M{accountsField: 1})
	err := r.teachers.FindOne(ctx, bson.M{domain.FieldName: name}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, storeError("find teacher accounts", err)
	}
	return doc.Accounts, nil
}

func (r *ProfileRepository) LinkTeacherAccount(ctx context.Context, name, username string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.teachers.UpdateOne(ctx,
		bson.M{domain.FieldName: name},
		bson.M{"$addToSet": bson.M{accountsField: username}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return storeError("link teacher account", err)
	}
	return nil
}

// EnsureIndexes creates the profile key indexes.
func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.students.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: domain.FieldStudentID, Value: 1}},
	}); err != nil {
		return storeError("students index", err)
	}
	if _, err := r.teachers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: domain.FieldName, Value: 1}},
	}); err != nil {
		return storeError("teachers index", err)
	}
	return nil
}

// upsert sets every field on the document matched by filter, creating it
// when absent. Keys MongoDB cannot store as field names are dropped.
func upsert(ctx context.Context, coll *mongo.Collection, filter bson.M, fields map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{}
	for k, v := range fields {
		if !storableField(k) {
			continue
		}
		set[k] = v
	}

	_, err := coll.UpdateOne(ctx, filter, bson.M{"$set": set}, options.Update().SetUpsert(true))
	if err != nil {
		return storeError("upsert "+coll.Name(), err)
	}
	return nil
}

func storableField(k string) bool {
	if k == "" || k == "_id" || k == accountsField {
		return false
	}
	return !strings.HasPrefix(k, "$") && !strings.Contains(k, ".")
}
