package workflow

import "errors"

var (
	// ErrGuideNotApproved blocks diagnostic-quiz generation for regular
	// topics until the active guide version is approved.
	ErrGuideNotApproved = errors.New("la guía debe estar aprobada antes de generar el quiz diagnóstico")

	// ErrGuideNotFinal blocks summative-quiz generation for regular topics
	// until the active guide version is flagged final.
	ErrGuideNotFinal = errors.New("la guía debe estar en versión final antes de generar el quiz sumativo")
)
