package runner

import (
	"fmt"
	"html"
	"strings"

	"github.com/darkkaiser/band-order-server/internal/ingestion"
	"github.com/darkkaiser/band-order-server/internal/pkg/mark"
	"github.com/darkkaiser/band-order-server/pkg/strutil"
)

const (
	// maxReportedErrors 알림 메시지에 나열할 에러의 최대 개수
	maxReportedErrors = 5

	// maxErrorMessageRunes 에러 한 건의 메시지 최대 길이
	maxErrorMessageRunes = 200
)

// FormatRunSummary 실행 결과를 텔레그램 HTML 메시지 본문으로 만듭니다.
func FormatRunSummary(result *ingestion.RunResult, runErr error) string {
	var sb strings.Builder

	if result == nil {
		fmt.Fprintf(&sb, "수집 결과: 실패%s\n", mark.Alert.WithSpace())
		if runErr != nil {
			fmt.Fprintf(&sb, "사유: %s", html.EscapeString(runErr.Error()))
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	status, statusMark := "성공", mark.Success
	switch {
	case result.Canceled:
		status, statusMark = "중단됨", mark.Stopped
	case runErr != nil || !result.Success:
		status, statusMark = "실패", mark.Alert
	case len(result.Errors) > 0:
		status, statusMark = "일부 실패", mark.Warning
	}

	s := result.Stats
	fmt.Fprintf(&sb, "수집 결과: %s%s\n", status, statusMark.WithSpace())
	fmt.Fprintf(&sb, "게시물: 전체 %d / 처리 %d / 건너뜀 %d / 실패 %d\n", s.TotalPosts, s.ProcessedPosts, s.SkippedPosts, s.FailedPosts)
	fmt.Fprintf(&sb, "주문: 전체 %s (신규 %s%s, AI %s) / 취소 %s%s\n",
		strutil.FormatCommas(s.TotalOrders),
		strutil.FormatCommas(s.NewOrders), countMark(s.NewOrders, mark.New),
		strutil.FormatCommas(s.AIOrders),
		strutil.FormatCommas(s.CanceledOrders), countMark(s.CanceledOrders, mark.Canceled))
	fmt.Fprintf(&sb, "고객: %s명\n", strutil.FormatCommas(s.TotalCustomers))
	if result.Duration != "" {
		fmt.Fprintf(&sb, "소요 시간: %s\n", result.Duration)
	}

	if runErr != nil {
		fmt.Fprintf(&sb, "\n사유: %s\n", html.EscapeString(runErr.Error()))
	}

	if n := len(result.Errors); n > 0 {
		fmt.Fprintf(&sb, "\n오류 %d건\n", n)
		for i, e := range result.Errors {
			if i >= maxReportedErrors {
				fmt.Fprintf(&sb, "외 %d건\n", n-maxReportedErrors)
				break
			}
			sb.WriteString(formatRunError(e))
			sb.WriteByte('\n')
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// countMark 건수가 있을 때만 마크를 붙입니다.
func countMark(count int, m mark.Mark) string {
	if count <= 0 {
		return ""
	}
	return m.WithSpace()
}

func formatRunError(e ingestion.RunError) string {
	msg := html.EscapeString(strutil.FirstLine(e.Message, maxErrorMessageRunes))
	switch {
	case e.PostKey != "" && e.CommentKey != "":
		return fmt.Sprintf("• [%s] %s/%s: %s", e.Stage, e.PostKey, e.CommentKey, msg)
	case e.PostKey != "":
		return fmt.Sprintf("• [%s] %s: %s", e.Stage, e.PostKey, msg)
	default:
		return fmt.Sprintf("• [%s] %s", e.Stage, msg)
	}
}
