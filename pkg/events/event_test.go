package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentsChanged(t *testing.T) {
	e := DocumentsChanged("proc-1", "upload", "a.pdf")

	assert.Equal(t, DOCUMENTS_CHANGED, e.EventType())
	assert.NotEmpty(t, e.EventID())
	assert.False(t, e.Timestamp().IsZero())
	assert.Equal(t, "proc-1", Origin(e))
	assert.Equal(t, "a.pdf", e.Payload()["doc_id"])
}

func TestOrigin_Missing(t *testing.T) {
	assert.Empty(t, Origin(New(STATE_CHANGED, map[string]interface{}{})))
}
