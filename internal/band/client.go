// Package band 밴드 Open API(게시물 목록, 댓글 목록) 클라이언트입니다.
//
// 모든 호출은 credential.Rotator를 거치므로 할당량 초과나 토큰 오류가 나면 백업 키로 자동 전환됩니다.
package band

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/darkkaiser/band-order-server/internal/comment"
	"github.com/darkkaiser/band-order-server/internal/credential"
	"github.com/darkkaiser/band-order-server/internal/fetcher"
	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/internal/store"
	applog "github.com/darkkaiser/band-order-server/pkg/log"
	"github.com/darkkaiser/band-order-server/pkg/strutil"
	"github.com/tidwall/gjson"
)

// component 로깅용 컴포넌트 이름
const component = "band.client"

const (
	postsEndpoint    = "/v2/band/posts"
	commentsEndpoint = "/v2.1/band/post/comments"

	defaultBaseURL         = "https://openapi.band.us"
	defaultLocale          = "ko_KR"
	defaultPageLimit       = 20
	defaultMaxCommentPages = 10

	titleMaxRunes = 50
)

// Config 클라이언트 설정
type Config struct {
	BaseURL string

	// CommentsBaseURL 비어 있으면 BaseURL을 사용합니다.
	CommentsBaseURL string

	Locale          string
	PageLimit       int
	MaxCommentPages int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.CommentsBaseURL == "" {
		c.CommentsBaseURL = c.BaseURL
	}
	if c.Locale == "" {
		c.Locale = defaultLocale
	}
	if c.PageLimit <= 0 {
		c.PageLimit = defaultPageLimit
	}
	if c.MaxCommentPages <= 0 {
		c.MaxCommentPages = defaultMaxCommentPages
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.CommentsBaseURL = strings.TrimRight(c.CommentsBaseURL, "/")
	return c
}

// Client 밴드 Open API 클라이언트
type Client struct {
	fetcher fetcher.Fetcher
	cfg     Config
}

// NewClient f는 보통 fetcher.New로 만든 재시도/속도 제한 체인입니다.
func NewClient(f fetcher.Fetcher, cfg Config) *Client {
	return &Client{fetcher: f, cfg: cfg.withDefaults()}
}

// GetPosts 최신 게시물부터 최대 limit개를 가져옵니다.
func (c *Client) GetPosts(ctx context.Context, r *credential.Rotator, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := r.ExecuteWithFailover(ctx, credential.ActionGetPosts, func(ctx context.Context, cred store.Credential) (credential.Usage, error) {
		var usage credential.Usage
		var err error
		posts, usage, err = c.fetchPosts(ctx, cred, limit)
		return usage, err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetComments 게시물의 댓글을 가져와 정규화합니다. 대댓글은 부모 댓글 뒤에 합성 댓글로 펼쳐집니다.
//
// 키가 없는 댓글은 합성 키로 복구되며, 그 경고는 두 번째 반환값으로 전달됩니다.
func (c *Client) GetComments(ctx context.Context, r *credential.Rotator, postKey string) ([]model.Comment, []error, error) {
	var raw []comment.APIComment
	err := r.ExecuteWithFailover(ctx, credential.ActionGetComments, func(ctx context.Context, cred store.Credential) (credential.Usage, error) {
		var usage credential.Usage
		var err error
		raw, usage, err = c.fetchComments(ctx, cred, postKey)
		return usage, err
	})
	if err != nil {
		return nil, nil, err
	}

	comments, warnings := comment.Flatten(raw)
	return comments, warnings, nil
}

func (c *Client) fetchPosts(ctx context.Context, cred store.Credential, limit int) ([]model.Post, credential.Usage, error) {
	var usage credential.Usage
	if cred.AccessToken == "" {
		return nil, usage, ErrMissingAccessToken
	}

	var posts []model.Post
	var next map[string]string
	for len(posts) < limit {
		params := url.Values{}
		params.Set("access_token", cred.AccessToken)
		params.Set("band_key", cred.BandKey)
		params.Set("locale", c.cfg.Locale)
		params.Set("limit", strconv.Itoa(min(c.cfg.PageLimit, limit-len(posts))))
		for k, v := range next {
			params.Set(k, v)
		}

		usage.APICalls++
		data, err := c.get(ctx, c.cfg.BaseURL+postsEndpoint, params)
		if err != nil {
			return nil, usage, err
		}
		if err := checkResult(postsEndpoint, data); err != nil {
			return nil, usage, err
		}

		items := gjson.GetBytes(data, "result_data.items")
		if !items.IsArray() && items.Exists() {
			return nil, usage, newErrMalformedResponse(postsEndpoint, nil)
		}
		items.ForEach(func(_, item gjson.Result) bool {
			posts = append(posts, parsePost(item))
			return true
		})

		next = nextParams(data)
		if next == nil || len(items.Array()) == 0 {
			break
		}
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	usage.PostsFetched = len(posts)
	return posts, usage, nil
}

func (c *Client) fetchComments(ctx context.Context, cred store.Credential, postKey string) ([]comment.APIComment, credential.Usage, error) {
	var usage credential.Usage
	if cred.AccessToken == "" {
		return nil, usage, ErrMissingAccessToken
	}

	var all []comment.APIComment
	var next map[string]string
	for page := 1; page <= c.cfg.MaxCommentPages; page++ {
		params := url.Values{}
		params.Set("access_token", cred.AccessToken)
		params.Set("band_key", cred.BandKey)
		params.Set("post_key", postKey)
		for k, v := range next {
			params.Set(k, v)
		}

		usage.APICalls++
		data, err := c.get(ctx, c.cfg.CommentsBaseURL+commentsEndpoint, params)
		if err != nil {
			return nil, usage, err
		}
		if err := checkResult(commentsEndpoint, data); err != nil {
			return nil, usage, err
		}

		var items []comment.APIComment
		if raw := gjson.GetBytes(data, "result_data.items"); raw.Exists() {
			if err := json.Unmarshal([]byte(raw.Raw), &items); err != nil {
				return nil, usage, newErrMalformedResponse(commentsEndpoint, err)
			}
		}
		all = append(all, items...)

		next = nextParams(data)
		if next == nil {
			break
		}
		if page == c.cfg.MaxCommentPages {
			applog.WithComponentAndFields(component, applog.Fields{
				"post_key":  postKey,
				"max_pages": c.cfg.MaxCommentPages,
				"comments":  len(all),
			}).Warn("댓글 페이지 한도에 도달하여 나머지 댓글은 가져오지 않습니다")
		}
	}

	usage.CommentsFetched = len(all)
	return all, usage, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fetcher.NewErrRequestCreationFailed(err, endpoint)
	}
	req.Header.Set("Accept", "application/json")

	data, err := fetcher.FetchBytes(c.fetcher, req)
	if err != nil {
		return nil, translateError(err)
	}
	return data, nil
}

func checkResult(endpoint string, data []byte) error {
	if !gjson.ValidBytes(data) {
		return newErrMalformedResponse(endpoint, nil)
	}

	code := gjson.GetBytes(data, "result_code").Int()
	if code == resultCodeOK {
		return nil
	}

	message := gjson.GetBytes(data, "result_data.message").String()
	if message == "" {
		message = gjson.GetBytes(data, "message").String()
	}
	return newErrResultCode(endpoint, code, message)
}

// nextParams paging.next_params가 없으면 nil을 반환합니다.
func nextParams(data []byte) map[string]string {
	np := gjson.GetBytes(data, "result_data.paging.next_params")
	if !np.IsObject() {
		return nil
	}

	params := make(map[string]string)
	np.ForEach(func(k, v gjson.Result) bool {
		params[k.String()] = v.String()
		return true
	})
	if len(params) == 0 {
		return nil
	}
	return params
}

func parsePost(item gjson.Result) model.Post {
	content := strutil.StripMarkup(item.Get("content").String())
	return model.Post{
		BandKey:      item.Get("band_key").String(),
		PostKey:      item.Get("post_key").String(),
		Title:        strutil.FirstLine(content, titleMaxRunes),
		Content:      content,
		AuthorName:   item.Get("author.name").String(),
		PostedAt:     time.UnixMilli(item.Get("created_at").Int()),
		CommentCount: int(item.Get("comment_count").Int()),
	}
}
