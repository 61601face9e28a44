package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraintClassification(t *testing.T) {
	unique := errors.New("constraint failed: UNIQUE constraint failed: editions.isbn (2067)")
	fk := errors.New("constraint failed: FOREIGN KEY constraint failed (787)")

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolationOn(unique, "editions", "isbn"))
	assert.False(t, IsUniqueViolationOn(unique, "book_merges", "from_book_id"))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(nil))
}
