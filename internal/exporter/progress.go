package exporter

// 导出阶段
const (
	StagePrepare = "prepare"
	StageRender  = "render"
	StageDone    = "done"
)

// ProgressEvent 导出进度事件（用于 SSE 推送）
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// DedupeProgress 包装回调，同一百分比只上报一次
func DedupeProgress(fn func(ProgressEvent)) func(ProgressEvent) {
	if fn == nil {
		return nil
	}
	last := -1
	return func(p ProgressEvent) {
		if p.Percent == last {
			return
		}
		last = p.Percent
		fn(p)
	}
}

func reportProgress(progress func(ProgressEvent), percent int, stage string) {
	if progress == nil {
		return
	}
	percent = max(0, min(percent, 100))
	progress(ProgressEvent{
		Percent: percent,
		Stage:   stage,
	})
}
