// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package firmware

// Progress reports how much of a transfer has completed, in bytes.
type Progress struct {
	Partial int64
	Total   int64
}

func NewProgress(partial, total int64) Progress {
	return Progress{Partial: partial, Total: total}
}

// Relative returns the completed fraction in [0, 1]. A zero total yields 0.
func (p Progress) Relative() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Partial) / float64(p.Total)
}

// Percentage returns the completed fraction as a percentage.
func (p Progress) Percentage() float64 {
	return p.Relative() * 100
}
