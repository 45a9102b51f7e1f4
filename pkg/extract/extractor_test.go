package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsError(t *testing.T) {
	assert.True(t, IsError("Error: timeout"))
	assert.True(t, IsError(Errorf("boom %d", 42)))
	assert.False(t, IsError("The paper introduces..."))
	assert.False(t, IsError(""))
}

func TestHTTPExtractor(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr bool
		want    string
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"text":"full paper text"}`))
			},
			want: "full paper text",
		},
		{
			name: "service error field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"error":"corrupt pdf"}`))
			},
			wantErr: true,
		},
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: true,
		},
		{
			name: "empty text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"text":"  "}`))
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			got := NewHTTPExtractor(srv.URL).ExtractText(context.Background(), "http://papers/1.pdf")
			if tt.wantErr {
				assert.True(t, IsError(got), "got %q", got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestHTTPExtractorUnreachable(t *testing.T) {
	got := NewHTTPExtractor("http://127.0.0.1:1").ExtractText(context.Background(), "http://papers/1.pdf")
	assert.True(t, IsError(got))
}
