// Package version 빌드 시점에 링커 플래그(-ldflags -X)로 주입된 빌드 정보를 제공합니다.
//
// 주입된 값이 없으면 실행 파일에 포함된 VCS 메타데이터(debug.ReadBuildInfo)로 보완합니다.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

const unknown = "unknown"

// -ldflags "-X github.com/darkkaiser/band-order-server/internal/pkg/version.appVersion=..." 로 주입됩니다.
var (
	appVersion    = ""
	gitCommitHash = ""
	gitTreeState  = ""
	buildDate     = ""
	buildNumber   = ""
)

var readBuildInfo = debug.ReadBuildInfo

var (
	buildInfo     Info
	buildInfoOnce sync.Once
)

// Info 서버의 빌드 정보
type Info struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"build_date"`
	BuildNumber string `json:"build_number"`
	GoVersion   string `json:"go_version"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	DirtyBuild  bool   `json:"dirty_build"`
}

// Get 빌드 정보를 반환합니다. 최초 호출 시 한 번만 계산됩니다.
func Get() Info {
	buildInfoOnce.Do(func() {
		buildInfo = resolve(Info{
			Version:     strings.TrimSpace(appVersion),
			Commit:      strings.TrimSpace(gitCommitHash),
			BuildDate:   strings.TrimSpace(buildDate),
			BuildNumber: strings.TrimSpace(buildNumber),
			DirtyBuild:  strings.EqualFold(strings.TrimSpace(gitTreeState), "dirty"),
		})
	})
	return buildInfo
}

// resolve 비어 있는 필드를 런타임 정보와 VCS 메타데이터로 채웁니다.
func resolve(bi Info) Info {
	bi.GoVersion = runtime.Version()
	bi.OS = runtime.GOOS
	bi.Arch = runtime.GOARCH

	if mod, ok := readBuildInfo(); ok && mod != nil {
		applyModuleInfo(&bi, mod)
	}

	fillEmpty(&bi.Version, unknown)
	fillEmpty(&bi.Commit, unknown)
	fillEmpty(&bi.BuildDate, unknown)
	fillEmpty(&bi.BuildNumber, "0")

	return bi
}

// applyModuleInfo 실행 파일에 기록된 VCS 정보로 비어 있는 값만 채웁니다.
func applyModuleInfo(bi *Info, mod *debug.BuildInfo) {
	vcs := make(map[string]string, len(mod.Settings))
	for _, kv := range mod.Settings {
		vcs[kv.Key] = kv.Value
	}

	fillEmpty(&bi.Commit, vcs["vcs.revision"])
	fillEmpty(&bi.BuildDate, vcs["vcs.time"])
	bi.DirtyBuild = bi.DirtyBuild || vcs["vcs.modified"] == "true"
	if mod.Main.Version != "(devel)" {
		fillEmpty(&bi.Version, mod.Main.Version)
	}
}

func fillEmpty(field *string, fallback string) {
	if *field == "" {
		*field = fallback
	}
}

// ToMap 구조화 로그 필드로 사용할 맵을 반환합니다.
func (i Info) ToMap() map[string]any {
	return map[string]any{
		"version":      i.Version,
		"commit":       i.Commit,
		"build_date":   i.BuildDate,
		"build_number": i.BuildNumber,
		"go_version":   i.GoVersion,
		"os":           i.OS,
		"arch":         i.Arch,
		"dirty_build":  i.DirtyBuild,
	}
}

// String 배너와 로그에 출력할 한 줄 요약입니다. 예: v1.2.0+dirty (commit: f25b8bf, build: 12, go1.24.0 linux/amd64)
func (i Info) String() string {
	version := i.Version
	if version == "" {
		version = unknown
	}
	if i.DirtyBuild {
		version += "+dirty"
	}

	var details []string
	if i.Commit != "" && i.Commit != unknown {
		commit := i.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		details = append(details, "commit: "+commit)
	}
	if i.BuildNumber != "" && i.BuildNumber != "0" {
		details = append(details, "build: "+i.BuildNumber)
	}
	if i.GoVersion != "" {
		details = append(details, fmt.Sprintf("%s %s/%s", i.GoVersion, i.OS, i.Arch))
	}

	if len(details) == 0 {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, strings.Join(details, ", "))
}
