package controller

import "context"

type Stage struct {
	Name string
	Run  func(context.Context) error
}

// RunPipeline выполняет шаги по порядку; первый упавший шаг останавливает остальные.
func RunPipeline(ctx context.Context, stages ...Stage) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: st.Name, Err: err}
		}
		if err := st.Run(ctx); err != nil {
			return &StageError{Stage: st.Name, Err: err}
		}
	}
	return nil
}
