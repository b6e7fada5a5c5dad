package driver

import (
	"encoding/json"
	"fmt"
	"go/token"

	"weft/internal/diag"
	"weft/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Units   int                  `json:"units"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "pipeline"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms, %d units", payload.Kind, payload.TotalMS, payload.Units)

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.New(diag.SevInfo, diag.ObsTimings, token.Position{}, msg).
		WithNote(token.Position{}, string(data))

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(bag.Len() + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
