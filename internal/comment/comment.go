// Package comment 외부 스키마별 댓글 레코드를 정규화된 model.Comment로 변환합니다.
//
// 스키마 버전마다 변환 함수가 하나씩 있으며, 필드 이름을 런타임에 추측하지 않습니다.
package comment

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/darkkaiser/band-order-server/internal/model"
	"github.com/darkkaiser/band-order-server/pkg/strutil"
)

// UnknownAuthorName 작성자 이름이 없을 때 사용하는 이름
const UnknownAuthorName = "알수없음"

// APIAuthor 밴드 Open API 댓글 작성자
type APIAuthor struct {
	Name            string `json:"name"`
	UserKey         string `json:"user_key"`
	MemberKey       string `json:"member_key"`
	ProfileImageURL string `json:"profile_image_url"`
}

// APIComment 밴드 Open API v2.1 "/band/post/comments" 응답의 댓글 항목
type APIComment struct {
	CommentKey     string     `json:"comment_key"`
	Content        string     `json:"content"`
	Author         APIAuthor  `json:"author"`
	CreatedAt      int64      `json:"created_at"`
	LatestComments []APIReply `json:"latest_comments"`
}

// APIReply v2.1 댓글 항목에 포함된 대댓글. 고유 키가 없습니다.
type APIReply struct {
	Body      string    `json:"body"`
	Author    APIAuthor `json:"author"`
	CreatedAt int64     `json:"created_at"`
}

// StoredComment 저장소나 AI 요청 페이로드에 기록된 평탄한 댓글 레코드
type StoredComment struct {
	CommentKey   string    `json:"comment_key"`
	Content      string    `json:"content"`
	AuthorUserNo string    `json:"author_user_no"`
	AuthorName   string    `json:"author_name"`
	CreatedAt    time.Time `json:"created_at"`
}

var botPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)자동\s*응답`),
	regexp.MustCompile(`(?i)\bbot\b`),
	regexp.MustCompile(`알림\s*메시지`),
	regexp.MustCompile(`시스템\s*메시지`),
}

func authorName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return UnknownAuthorName
}

func cleanContent(s string) string {
	return strings.TrimSpace(strutil.StripMarkup(s))
}

// SyntheticKey comment_key가 없는 댓글의 대체 키를 (작성자 키, 작성 시각)으로 만듭니다.
func SyntheticKey(authorKey string, createdAt time.Time) string {
	if authorKey == "" {
		authorKey = "unknown"
	}
	return authorKey + "_" + strconv.FormatInt(createdAt.UnixMilli(), 10)
}

// FromAPIv2 v2.1 댓글 항목을 변환합니다. 대댓글(LatestComments)은 포함하지 않으며 Flatten을 사용해야 합니다.
//
// comment_key가 없으면 대체 키를 사용한 댓글과 MalformedComment 에러를 함께 반환합니다.
func FromAPIv2(raw APIComment) (model.Comment, error) {
	createdAt := time.UnixMilli(raw.CreatedAt)
	c := model.Comment{
		CommentKey: strings.TrimSpace(raw.CommentKey),
		Content:    cleanContent(raw.Content),
		Author: model.Author{
			UserNo:          raw.Author.UserKey,
			Name:            authorName(raw.Author.Name),
			MemberKey:       raw.Author.MemberKey,
			ProfileImageURL: raw.Author.ProfileImageURL,
		},
		CreatedAt: createdAt,
	}

	if c.CommentKey == "" || c.CommentKey == "undefined" || c.CommentKey == "null" {
		c.CommentKey = SyntheticKey(raw.Author.UserKey, createdAt)
		c.Synthetic = true
		return c, NewErrMissingCommentKey(c.CommentKey)
	}
	return c, nil
}

// FromAPIv21Reply 대댓글을 최상위 댓글로 변환합니다.
// 키는 "{부모 키}_{작성 시각}"이며, 본문 앞에 부모 댓글 작성자 이름을 붙입니다.
func FromAPIv21Reply(parent model.Comment, parentAuthorName string, reply APIReply) model.Comment {
	createdAt := time.UnixMilli(reply.CreatedAt)
	content := cleanContent(reply.Body)
	if parentAuthorName = strings.TrimSpace(parentAuthorName); parentAuthorName != "" {
		content = parentAuthorName + " " + content
	}

	return model.Comment{
		CommentKey: parent.CommentKey + "_" + strconv.FormatInt(reply.CreatedAt, 10),
		ParentKey:  parent.CommentKey,
		Content:    content,
		Author: model.Author{
			UserNo:          reply.Author.UserKey,
			Name:            authorName(reply.Author.Name),
			MemberKey:       reply.Author.MemberKey,
			ProfileImageURL: reply.Author.ProfileImageURL,
		},
		CreatedAt: createdAt,
	}
}

// Flatten v2.1 댓글 목록을 대댓글까지 포함한 평탄한 목록으로 변환합니다.
// 대체 키를 사용한 댓글마다 발생한 에러를 함께 반환합니다.
func Flatten(items []APIComment) ([]model.Comment, []error) {
	var (
		comments []model.Comment
		issues   []error
	)
	for _, item := range items {
		c, err := FromAPIv2(item)
		if err != nil {
			issues = append(issues, err)
		}
		comments = append(comments, c)

		for _, reply := range item.LatestComments {
			comments = append(comments, FromAPIv21Reply(c, item.Author.Name, reply))
		}
	}
	return comments, issues
}

// FromStored 저장된 댓글 레코드를 변환합니다.
func FromStored(raw StoredComment) (model.Comment, error) {
	c := model.Comment{
		CommentKey: strings.TrimSpace(raw.CommentKey),
		Content:    cleanContent(raw.Content),
		Author: model.Author{
			UserNo: raw.AuthorUserNo,
			Name:   authorName(raw.AuthorName),
		},
		CreatedAt: raw.CreatedAt,
	}
	if c.CommentKey == "" {
		c.CommentKey = SyntheticKey(raw.AuthorUserNo, raw.CreatedAt)
		c.Synthetic = true
		return c, NewErrMissingCommentKey(c.CommentKey)
	}
	return c, nil
}

// ToStored 정규화된 댓글을 평탄한 레코드로 변환합니다. AI 요청 페이로드에 사용됩니다.
func ToStored(c model.Comment) StoredComment {
	return StoredComment{
		CommentKey:   c.CommentKey,
		Content:      c.Content,
		AuthorUserNo: c.Author.UserNo,
		AuthorName:   c.Author.Name,
		CreatedAt:    c.CreatedAt,
	}
}

// IsBot 자동 응답, 시스템 알림 같은 봇 댓글인지 확인합니다.
func IsBot(c model.Comment) bool {
	for _, p := range botPatterns {
		if p.MatchString(c.Author.Name) || p.MatchString(c.Content) {
			return true
		}
	}
	return false
}

// Filter 빈 댓글과 봇 댓글을 제외합니다.
func Filter(comments []model.Comment) []model.Comment {
	out := make([]model.Comment, 0, len(comments))
	for _, c := range comments {
		if c.Content == "" || IsBot(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SortByTime 작성 시각 오름차순으로 정렬된 복사본을 반환합니다. 같은 시각이면 원래 순서를 유지합니다.
func SortByTime(comments []model.Comment) []model.Comment {
	sorted := make([]model.Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	return sorted
}
