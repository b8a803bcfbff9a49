package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/m3rciful/estatebot/internal/domain"
)

func TestTranslateNil(t *testing.T) {
	if got := translate("listings.get", "listing", 1, nil); got != nil {
		t.Fatalf("translate(nil) = %v", got)
	}
}

func TestTranslateNoRows(t *testing.T) {
	err := translate("listings.get", "listing", 42, sql.ErrNoRows)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Entity != "listing" || nf.ID != 42 {
		t.Errorf("not-found = %+v", nf)
	}
}

func TestTranslateWrappedNoRows(t *testing.T) {
	wrapped := fmt.Errorf("scan: %w", sql.ErrNoRows)
	if !domain.IsNotFound(translate("users.get", "user", 7, wrapped)) {
		t.Fatal("wrapped sql.ErrNoRows must map to NotFoundError")
	}
}

func TestTranslateConstraintClasses(t *testing.T) {
	for _, code := range []string{pqUniqueViolation, pqForeignKeyViolation, pqCheckViolation} {
		err := translate("users.create", "user", 0, &pq.Error{Code: pq.ErrorCode(code)})
		if !domain.IsConstraint(err) {
			t.Errorf("code %s: expected ConstraintError, got %v", code, err)
		}
	}
}

func TestTranslatePassThrough(t *testing.T) {
	other := &pq.Error{Code: "57014"} // query_canceled
	if got := translate("listings.list", "listing", 0, other); got != other {
		t.Errorf("unrelated pq error must pass through, got %v", got)
	}
	plain := errors.New("connection reset")
	if got := translate("listings.list", "listing", 0, plain); got != plain {
		t.Errorf("plain error must pass through, got %v", got)
	}
}
