package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sraslabs/sras/internal/model"
	"github.com/sraslabs/sras/internal/ui"
	"github.com/sraslabs/sras/internal/verify"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printViolationDetail(v model.Violation) {
	fmt.Printf("ID:          %d\n", v.ID)
	fmt.Printf("Plate:       %s\n", v.Plate())
	fmt.Printf("Status:      %s\n", ui.RenderStatus(v.Status))
	fmt.Printf("Camera:      %s\n", v.Camera.Name)
	fmt.Printf("Captured At: %s\n", v.Timestamp.Local().Format(timeLayout))
	fmt.Printf("SMS Sent:    %t\n", v.SMSSent)
	if v.RiderHash != nil && *v.RiderHash != "" {
		fmt.Printf("Rider Hash:  %s\n", *v.RiderHash)
	}
	if v.VerifiedAt != nil {
		fmt.Printf("Verified At: %s\n", v.VerifiedAt.Local().Format(timeLayout))
	}
	if v.VerificationNotes != nil && *v.VerificationNotes != "" {
		fmt.Printf("Notes:       %s\n", *v.VerificationNotes)
	}
}

func printViolationTable(items []model.Violation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCAPTURED\tPLATE\tCAMERA\tSTATUS")
	for _, v := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			v.ID,
			v.Timestamp.Local().Format(timeLayout),
			v.Plate(),
			v.Camera.Name,
			ui.RenderStatus(v.Status),
		)
	}
	w.Flush()
	fmt.Printf("\n%d pending\n", len(items))
}

func printQueueTable(items []verify.Item) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCAPTURED\tPLATE\tCAMERA\tSTATUS")
	for _, it := range items {
		v := it.Violation
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			v.ID,
			v.Timestamp.Local().Format(timeLayout),
			v.Plate(),
			v.Camera.Name,
			ui.RenderStatus(it.Status),
		)
	}
	w.Flush()
}
