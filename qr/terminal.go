package qr

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	rscqr "rsc.io/qr"
)

func (l Level) terminal() rscqr.Level {
	switch l {
	case LevelL:
		return rscqr.L
	case LevelQ:
		return rscqr.Q
	case LevelH:
		return rscqr.H
	default:
		return rscqr.M
	}
}

// WriteTerminal prints payload to w as a half-block terminal QR code.
func WriteTerminal(w io.Writer, payload string, level Level) {
	qrterminal.GenerateHalfBlock(payload, level.terminal(), w)
}
