package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api/web"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/weberr"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/Hamstertjie/Learn-With-Hamster-App/validate"
	"github.com/jmoiron/sqlx"
)

// Error keys returned to clients next to validation failures.
const (
	KeyIDExists        = "idexists"
	KeyIDNull          = "idnull"
	KeyIDInvalid       = "idinvalid"
	KeyIDNotFound      = "idnotfound"
	KeyValidation      = "validation"
	KeyRefNotFound     = "refnotfound"
	KeyMultipleParents = "multipleparents"
)

var (
	ErrIDExists   = errors.New("a new entity cannot already have an ID")
	ErrIDNull     = errors.New("invalid id")
	ErrIDInvalid  = errors.New("invalid ID")
	ErrIDNotFound = errors.New("entity not found")
)

// CheckCreate rejects create requests that carry an id.
func CheckCreate(id *int64) error {
	if id != nil {
		return weberr.Invalid(ErrIDExists, KeyIDExists)
	}
	return nil
}

// CheckUpdate validates the id of an update against the path and the record
// store. table is the entity table.
func CheckUpdate(ctx context.Context, db sqlx.QueryerContext, table string, pathID int64, bodyID *int64) error {
	if bodyID == nil {
		return weberr.Invalid(ErrIDNull, KeyIDNull)
	}
	if *bodyID != pathID {
		return weberr.Invalid(ErrIDInvalid, KeyIDInvalid)
	}
	if err := validate.CheckID(pathID); err != nil {
		return weberr.Invalid(err, KeyIDInvalid)
	}

	missing, err := database.MissingIDs(ctx, db, table, []int64{pathID})
	if err != nil {
		return fmt.Errorf("checking %s[%d]: %w", table, pathID, err)
	}
	if len(missing) > 0 {
		return weberr.Invalid(ErrIDNotFound, KeyIDNotFound)
	}
	return nil
}

// CheckRefs fails with a validation error when any of ids is not in table.
func CheckRefs(ctx context.Context, db sqlx.QueryerContext, table string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := database.MissingIDs(ctx, db, table, ids)
	if err != nil {
		return fmt.Errorf("checking %s references: %w", table, err)
	}
	if len(missing) > 0 {
		return weberr.Invalid(fmt.Errorf("%s %v does not exist", table, missing), KeyRefNotFound)
	}
	return nil
}

// CheckValid runs the struct validator and maps failures to a client error.
func CheckValid(v any) error {
	if err := validate.Check(v); err != nil {
		return weberr.Invalid(err, KeyValidation)
	}
	return nil
}

// PathID reads the {id} path parameter.
func PathID(r *http.Request) (int64, error) {
	id, err := web.ParamInt64(r, "id")
	if err != nil {
		return 0, weberr.BadRequest(err)
	}
	return id, nil
}

// NotFoundOnUpdate turns a row that vanished between the id check and the
// write into the same rejection the id check would have produced.
func NotFoundOnUpdate(err error) error {
	if errors.Is(err, database.ErrDBNotFound) {
		return weberr.Invalid(ErrIDNotFound, KeyIDNotFound)
	}
	return err
}
