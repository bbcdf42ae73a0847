package ui

import (
	"io"
	"strings"

	"github.com/noborus/ov/oviewer"
)

// detailPager shows text in ov. It satisfies tea.ExecCommand so Bubble Tea
// releases and restores the terminal around it.
type detailPager struct {
	content string
}

func (p *detailPager) Run() error {
	root, err := oviewer.NewRoot(strings.NewReader(p.content))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// ov drives the terminal through tcell directly
func (p *detailPager) SetStdin(io.Reader)  {}
func (p *detailPager) SetStdout(io.Writer) {}
func (p *detailPager) SetStderr(io.Writer) {}
