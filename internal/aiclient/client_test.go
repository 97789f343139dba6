package aiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darkkaiser/band-order-server/internal/fetcher"
	"github.com/darkkaiser/band-order-server/internal/model"
	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(endpoint string) *Client {
	f := fetcher.Wrap(fetcher.NewHTTPFetcher(time.Second, ""), fetcher.Config{})
	return New(f, Config{Enabled: true, Endpoint: endpoint, APIKey: "secret"})
}

var testComments = []model.Comment{
	{CommentKey: "c1", Content: "사과 2개", Author: model.Author{UserNo: "u1", Name: "김철수"}, CreatedAt: time.Unix(100, 0)},
	{CommentKey: "c2", Content: "1번 하나 2번 둘", Author: model.Author{UserNo: "u2", Name: "이영희"}, CreatedAt: time.Unix(200, 0)},
}

func TestClient_Extract(t *testing.T) {
	t.Parallel()

	t.Run("주문 변환", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

			var req request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "p1", req.Post.PostKey)
			require.Len(t, req.Comments, 2)
			assert.Equal(t, "u2", req.Comments[1].AuthorUserNo)

			_, _ = w.Write([]byte(`{"orders":[
				{"commentKey":"c2","authorUserNo":"u2","productItemNumber":1,"quantity":1,"unitPrice":5000,"customerName":"이영희"},
				{"commentKey":"c2","authorUserNo":"u2","productItemNumber":2,"quantity":0,"unitPrice":3000,"totalPrice":0,"confidence":0.6,"isAmbiguous":true,"reason":"수량 불명확"},
				{"commentKey":"","productItemNumber":1}
			]}`))
		}))
		defer srv.Close()

		got, err := newClient(srv.URL).Extract(context.Background(), PostInfo{PostKey: "p1"}, testComments)
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, model.MatchTypeAI, got[0].MatchType)
		assert.Equal(t, 5000, got[0].TotalPrice)
		assert.Equal(t, 0.9, got[0].Confidence)

		assert.Equal(t, 1, got[1].Quantity)
		assert.True(t, got[1].IsAmbiguous)
		assert.Equal(t, 3000, got[1].TotalPrice)
		assert.Equal(t, "수량 불명확", got[1].Reason)
	})

	t.Run("빈 결과는 추출 실패", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"orders":[]}`))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).Extract(context.Background(), PostInfo{PostKey: "p1"}, testComments)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ExtractionFailure))
		assert.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("HTTP 오류는 추출 실패", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).Extract(context.Background(), PostInfo{PostKey: "p1"}, testComments)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ExtractionFailure))
	})

	t.Run("비활성화", func(t *testing.T) {
		t.Parallel()

		c := New(fetcher.NewHTTPFetcher(time.Second, ""), Config{Enabled: false, Endpoint: "http://localhost"})
		assert.False(t, c.Enabled())
		_, err := c.Extract(context.Background(), PostInfo{}, testComments)
		assert.ErrorIs(t, err, ErrDisabled)

		var nilClient *Client
		assert.False(t, nilClient.Enabled())
	})
}
