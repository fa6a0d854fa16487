// Package ai 封装生成反馈草稿的外部文本生成服务
package ai

import (
	"context"
	"errors"

	"feedbacktool/internal/model"
)

var (
	// ErrNotConfigured 未配置 API Key
	ErrNotConfigured = errors.New("ai generator not configured")
	// ErrEmptyResponse 服务返回内容为空
	ErrEmptyResponse = errors.New("ai generator returned no text")
	// ErrResponseTooLarge 响应体超过上限
	ErrResponseTooLarge = errors.New("ai generator response too large")
)

// Request 生成请求
type Request struct {
	Employee    model.EmployeeMetrics
	AudioBase64 string // 无录音时为空
	AudioMIME   string
	Notes       string
	Period      string
	Locale      string
}

// HasAudio 是否附带录音
func (r Request) HasAudio() bool {
	return r.AudioBase64 != ""
}

// Generator 反馈生成器
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc 函数适配为 Generator
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
