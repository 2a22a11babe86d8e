package runner

import (
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/NethermindEth/fanout/fanout"
	"github.com/NethermindEth/fanout/serialize"
	"github.com/olekukonko/tablewriter"
)

type MemberResult struct {
	Name   string `json:"name" cbor:"name"`
	Value  any    `json:"value,omitempty" cbor:"value,omitempty"`
	Error  string `json:"error,omitempty" cbor:"error,omitempty"`
	Cached bool   `json:"cached,omitempty" cbor:"cached,omitempty"`
}

type InputResult struct {
	Input   string         `json:"input" cbor:"input"`
	Members []MemberResult `json:"members" cbor:"members"`
}

// BufferSummary stands in for the chunks kept by a bufferer.
type BufferSummary struct {
	Chunks int    `json:"chunks" cbor:"chunks"`
	Bytes  uint64 `json:"bytes" cbor:"bytes"`
}

func summarise(value any) any {
	chunks, ok := value.([][]byte)
	if !ok {
		return value
	}
	summary := BufferSummary{Chunks: len(chunks)}
	for _, chunk := range chunks {
		summary.Bytes += uint64(len(chunk))
	}
	return summary
}

func (r *Runner) results(outputs []fanout.GroupOutput[any]) iter.Seq[InputResult] {
	return func(yield func(InputResult) bool) {
		for i, output := range outputs {
			result := InputResult{Input: r.cfg.Inputs[i], Members: make([]MemberResult, len(output.Results))}
			for j, member := range output.Results {
				result.Members[j] = MemberResult{Name: r.names[j], Cached: member.Cached}
				if member.Err != nil {
					result.Members[j].Error = member.Err.Error()
				} else {
					result.Members[j].Value = summarise(member.Output)
				}
			}
			if !yield(result) {
				return
			}
		}
	}
}

func (r *Runner) report(w io.Writer, outputs []fanout.GroupOutput[any]) error {
	switch r.cfg.Output {
	case OutputJSON:
		if err := serialize.JSON(w, "results", r.results(outputs)); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	case OutputCBOR:
		return serialize.CBOR(w, "results", r.results(outputs))
	default:
		r.table(w, outputs)
		return nil
	}
}

func (r *Runner) table(w io.Writer, outputs []fanout.GroupOutput[any]) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"Input"}, r.names...))
	for result := range r.results(outputs) {
		row := []string{result.Input}
		for _, member := range result.Members {
			row = append(row, cell(member))
		}
		table.Append(row)
	}
	table.Render()
}

func cell(member MemberResult) string {
	if member.Error != "" {
		return "error: " + member.Error
	}
	switch value := member.Value.(type) {
	case uint64:
		return strconv.FormatUint(value, 10)
	case BufferSummary:
		return fmt.Sprintf("%d chunks, %d bytes", value.Chunks, value.Bytes)
	case nil:
		return "-"
	default:
		return fmt.Sprint(value)
	}
}
