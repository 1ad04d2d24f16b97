package upload

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode"
)

// Mock 模拟上传：等待 Latency 后返回占位图地址，不保存文件内容
type Mock struct {
	Latency         time.Duration
	PlaceholderBase string
}

func NewMock(latency time.Duration, placeholderBase string) *Mock {
	return &Mock{Latency: latency, PlaceholderBase: placeholderBase}
}

func (m *Mock) Upload(ctx context.Context, _ []byte, fileName string) (Result, error) {
	if m.Latency > 0 {
		t := time.NewTimer(m.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-t.C:
		}
	}
	// 每个空白字符各换成一个 '+'，连续空白不合并
	text := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '+'
		}
		return r
	}, fileName)
	return Result{URL: m.PlaceholderBase + "?text=" + url.PathEscape(text)}, nil
}
