package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pthm/triagebot/internal/pipeline"
)

// ProgressController manages the bubbletea program for progress display.
// It doubles as a pipeline.Observer so stage progress reaches the view.
type ProgressController struct {
	ui      *UI
	program *tea.Program
	done    chan struct{}
}

var _ pipeline.Observer = (*ProgressController)(nil)

// StartProgress starts the progress display if in interactive mode
// Returns nil if not in interactive mode
func (ui *UI) StartProgress() *ProgressController {
	if ui.Mode != OutputModeInteractive {
		return nil
	}

	p := tea.NewProgram(NewModel(), tea.WithOutput(ui.ErrWriter))

	ctrl := &ProgressController{
		ui:      ui,
		program: p,
		done:    make(chan struct{}),
	}

	go func() {
		if _, err := p.Run(); err != nil {
			_ = err
		}
		close(ctrl.done)
	}()

	return ctrl
}

func (pc *ProgressController) send(msg tea.Msg) {
	if pc != nil && pc.program != nil {
		pc.program.Send(msg)
	}
}

// SetPhase updates the current phase
func (pc *ProgressController) SetPhase(phase Phase) {
	pc.send(PhaseMsg(phase))
}

// SetOperation updates the current operation description
func (pc *ProgressController) SetOperation(op string) {
	pc.send(OperationMsg(op))
}

// StageStarted implements pipeline.Observer
func (pc *ProgressController) StageStarted(_, stage string, index, total int) {
	pc.send(StageStartMsg{Name: stage, Index: index, Total: total})
}

// StageFinished implements pipeline.Observer
func (pc *ProgressController) StageFinished(_ string, r pipeline.StageResult) {
	pc.send(StageDoneMsg{Name: r.Stage, Verdict: string(r.Verdict)})
}

// StageFailed implements pipeline.Observer
func (pc *ProgressController) StageFailed(_, stage string, _ error) {
	pc.send(StageDoneMsg{Name: stage, Verdict: "ERROR"})
}

// Done signals that all work is complete
func (pc *ProgressController) Done(err error) {
	if pc != nil && pc.program != nil {
		pc.program.Send(DoneMsg{Err: err})
		<-pc.done
	}
}

// Observer returns pc as a pipeline.Observer, or nil when pc is nil
func (pc *ProgressController) Observer() pipeline.Observer {
	if pc == nil {
		return nil
	}
	return pc
}
