package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name string
		data string
		want map[string]string
	}{
		{
			name: "retry",
			data: "retry:job-42",
			want: map[string]string{"command": "retry", "job_id": "job-42"},
		},
		{
			name: "upvote",
			data: "upvote:job-42",
			want: map[string]string{"command": "upvote", "job_id": "job-42"},
		},
		{
			name: "shuffle with index",
			data: "shuffle:job-42:3",
			want: map[string]string{"command": "shuffle", "job_id": "job-42", "index": "3"},
		},
		{
			name: "select with index",
			data: "select:job-42:0",
			want: map[string]string{"command": "select", "job_id": "job-42", "index": "0"},
		},
		{
			name: "shuffle missing index",
			data: "shuffle:job-42",
			want: map[string]string{},
		},
		{
			name: "retry missing argument",
			data: "retry",
			want: map[string]string{},
		},
		{
			name: "unknown operation",
			data: "explode:job-42",
			want: map[string]string{},
		},
		{
			name: "empty payload",
			data: "",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCallbackData(tt.data))
		})
	}
}

func TestClientOptionsIncludePollTimeout(t *testing.T) {
	a := &Adapter{}

	assert.Len(t, clientOptions(a, 0), 1)
	assert.Len(t, clientOptions(a, 30*time.Second), 2)
}

func TestPollClientOutlivesPoll(t *testing.T) {
	client := pollClient(30 * time.Second)

	assert.Greater(t, client.Timeout, 30*time.Second)
}
