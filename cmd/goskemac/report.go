package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/reoring/goskemac"
	"github.com/reoring/goskemac/verify"
)

// reportIssues prints one table row per issue. Union issues are flattened
// into the issues of their options.
func reportIssues(label string, issues goskemac.Issues) error {
	pterm.Error.Printfln("%s: %d issue(s)", label, len(issues))
	data := append(pterm.TableData{{"Path", "Code", "Message"}}, issueRows(issues)...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func issueRows(issues goskemac.Issues) [][]string {
	var rows [][]string
	for _, it := range issues {
		if it.Code == verify.CodeInvalidUnion && len(it.UnionErrors) > 0 {
			rows = append(rows, []string{it.Pointer(), string(it.Code), it.Message})
			for i, sub := range it.UnionErrors {
				for _, r := range issueRows(sub) {
					r[1] = fmt.Sprintf("option %d: %s", i, r[1])
					rows = append(rows, r)
				}
			}
			continue
		}
		rows = append(rows, []string{it.Pointer(), string(it.Code), it.Message})
	}
	return rows
}
