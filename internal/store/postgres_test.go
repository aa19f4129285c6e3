package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSQL(t *testing.T) {
	src := `-- header
CREATE TABLE a (
    id int
);

CREATE INDEX a_idx ON a (id);
-- trailing
SELECT 1`
	got := splitSQL(src)
	assert.Equal(t, []string{
		"CREATE TABLE a (\n    id int\n);",
		"CREATE INDEX a_idx ON a (id);",
		"SELECT 1",
	}, got)
}

func TestSplitSQLEmpty(t *testing.T) {
	assert.Empty(t, splitSQL("-- nothing here\n\n"))
}
