package probe

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText prints rep as aligned plain-text tables.
func WriteText(w io.Writer, rep *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "records decoded: %d, sampled: %d\n\n", rep.Decoded, rep.Sampled)

	fmt.Fprintln(tw, "COLUMN\tPATH\tREQUIRED\tPRESENT\tSHARE\tCANDIDATE")
	for _, c := range rep.Columns {
		req := ""
		if c.Required {
			req = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f%%\t%s\n",
			c.Column, c.Path, req, c.Present, 100*c.Share(rep.Sampled), c.Candidate)
	}

	fmt.Fprintln(tw, "\nPATH\tPRESENT\tTYPES\tEXAMPLE")
	for _, s := range rep.Paths {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Path, s.Present, strings.Join(s.Types, ","), s.Example)
	}

	if len(rep.Layouts) > 0 {
		fmt.Fprintln(tw, "\nDATE LAYOUT\tHITS")
		for _, h := range rep.Layouts {
			fmt.Fprintf(tw, "%s\t%d\n", h.Layout, h.Hits)
		}
	}
	if len(rep.Unparsed) > 0 {
		fmt.Fprintf(tw, "\nunparseable release dates: %q\n", rep.Unparsed)
	}
	if rep.SchemaErr != nil {
		fmt.Fprintf(tw, "\nschema: %v\n", rep.SchemaErr)
	}
	return tw.Flush()
}
