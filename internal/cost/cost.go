// Package cost tracks token usage and converts it to USD via a per-model
// pricing table. Costs roll up by field-wise addition from per-question
// records to stage totals to the pipeline grand total.
package cost

// Info is an immutable cost record. Total is always Input + Output.
type Info struct {
	Input  float64 `json:"input_cost"`
	Output float64 `json:"output_cost"`
	Total  float64 `json:"total_cost"`
}

// NewInfo builds an Info from its input and output components.
func NewInfo(input, output float64) Info {
	return Info{Input: input, Output: output, Total: input + output}
}

// Add returns the field-wise sum of two cost records.
func (c Info) Add(o Info) Info {
	return NewInfo(c.Input+o.Input, c.Output+o.Output)
}

// Sum rolls up any number of cost records.
func Sum(infos ...Info) Info {
	var total Info
	for _, i := range infos {
		total = total.Add(i)
	}
	return total
}

// Usage is the token consumption reported by one model call or an
// aggregate of calls.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Requests     int `json:"requests,omitempty"`
}

// Add returns the field-wise sum of two usage records.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		Requests:     u.Requests + o.Requests,
	}
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}
