package mongo

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

const teachersNS = "test.teachers"

func TestStorableField(t *testing.T) {
	cases := map[string]bool{
		"name":       true,
		"학번":         true,
		"class":      true,
		"":           false,
		"_id":        false,
		"accounts":   false,
		"$set":       false,
		"phone.home": false,
	}
	for k, want := range cases {
		if got := storableField(k); got != want {
			t.Errorf("storableField(%q) = %v, want %v", k, got, want)
		}
	}
}

func TestProfileRepository_TeacherAccounts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no profile yet", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, teachersNS, mtest.FirstBatch))

		accounts, err := NewProfileRepository(mt.DB).TeacherAccounts(context.Background(), "Kim")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if accounts != nil {
			t.Fatalf("expected nil accounts, got %v", accounts)
		}
	})

	mt.Run("keeps stored order", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, teachersNS, mtest.FirstBatch, bson.D{
			{Key: domain.FieldName, Value: "Kim"},
			{Key: "accounts", Value: bson.A{"Kim", "Kim1", "Kim2"}},
		}))

		accounts, err := NewProfileRepository(mt.DB).TeacherAccounts(context.Background(), "Kim")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"Kim", "Kim1", "Kim2"}
		if len(accounts) != len(want) {
			t.Fatalf("expected %v, got %v", want, accounts)
		}
		for i := range want {
			if accounts[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, accounts)
			}
		}

		projection := mt.GetStartedEvent().Command.Lookup("projection").Document()
		if _, err := projection.LookupErr("accounts"); err != nil {
			t.Fatal("lookup should project the accounts field")
		}
	})
}

func TestProfileRepository_LinkTeacherAccount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("appends with addToSet and upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		if err := NewProfileRepository(mt.DB).LinkTeacherAccount(context.Background(), "Kim", "Kim1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		update := mt.GetStartedEvent().Command.Lookup("updates", "0").Document()
		if got := update.Lookup("q", domain.FieldName).StringValue(); got != "Kim" {
			t.Fatalf("unexpected filter name %q", got)
		}
		if got := update.Lookup("u", "$addToSet", "accounts").StringValue(); got != "Kim1" {
			t.Fatalf("expected $addToSet of Kim1, got %q", got)
		}
		if _, err := update.LookupErr("u", "$set"); err == nil {
			t.Fatal("linking must not overwrite the accounts list")
		}
		if !update.Lookup("upsert").Boolean() {
			t.Fatal("linking should create the profile when missing")
		}
	})
}

func TestProfileRepository_UpsertStudent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sets storable fields only", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "x"}}}},
		))

		fields := map[string]string{
			domain.FieldStudentID: "20101",
			domain.FieldName:      "Lee",
			"_id":                 "forged",
			"accounts":            "forged",
			"phone.home":          "010",
		}
		if err := NewProfileRepository(mt.DB).UpsertStudent(context.Background(), "20101", fields); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		update := mt.GetStartedEvent().Command.Lookup("updates", "0").Document()
		if got := update.Lookup("q", domain.FieldStudentID).StringValue(); got != "20101" {
			t.Fatalf("unexpected filter %q", got)
		}
		set := update.Lookup("u", "$set").Document()
		if got := set.Lookup(domain.FieldName).StringValue(); got != "Lee" {
			t.Fatalf("unexpected name %q", got)
		}
		for _, k := range []string{"_id", "accounts", "phone.home"} {
			if _, err := set.LookupErr(k); err == nil {
				t.Errorf("field %q should not be written", k)
			}
		}
		if !update.Lookup("upsert").Boolean() {
			t.Fatal("student upsert should create missing profiles")
		}
	})
}
