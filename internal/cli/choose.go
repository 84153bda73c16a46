package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"contentdex/internal/model"
)

const menuLimit = 20

// chooseSource resolves the run's source interactively: pick from the
// existing list, search by name, or create a new one.
func chooseSource(ctx context.Context, st model.Store, s styles) (model.Source, error) {
	for {
		sources, err := st.ListSources(ctx, "", menuLimit)
		if err != nil {
			return model.Source{}, err
		}
		fmt.Fprintln(os.Stderr, s.sectionHeader("Select a source"))
		for i, src := range sources {
			fmt.Fprintf(os.Stderr, "  %2d. %s %s\n", i+1, src.Name,
				s.dim(fmt.Sprintf("(%s, %s, importance %.1f)", orDash(src.Country), orDash(src.Job), src.Importance)))
		}
		fmt.Fprintln(os.Stderr, s.dim("  n. create new    s. search    or type a name directly"))

		line, err := readLine("> ")
		if err != nil {
			return model.Source{}, err
		}
		switch line {
		case "":
			continue
		case "n":
			return createSource(ctx, st)
		case "s":
			query, err := readLine("Search: ")
			if err != nil {
				return model.Source{}, err
			}
			matches, err := st.ListSources(ctx, query, menuLimit)
			if err != nil {
				return model.Source{}, err
			}
			if len(matches) == 0 {
				fmt.Fprintln(os.Stderr, s.dim("no matches"))
				continue
			}
			for i, src := range matches {
				fmt.Fprintf(os.Stderr, "  %2d. %s\n", i+1, src.Name)
			}
			pick, err := readLine("> ")
			if err != nil {
				return model.Source{}, err
			}
			if idx, ok := menuIndex(pick, len(matches)); ok {
				return matches[idx], nil
			}
		default:
			if idx, ok := menuIndex(line, len(sources)); ok {
				return sources[idx], nil
			}
			// a typed name resolves to the existing source or creates it
			return st.GetOrCreateSource(ctx, line, "", "", 0.5)
		}
	}
}

func createSource(ctx context.Context, st model.Store) (model.Source, error) {
	name, err := readLine("Name: ")
	if err != nil {
		return model.Source{}, err
	}
	if name == "" {
		return model.Source{}, fmt.Errorf("source name required")
	}
	country, err := readLine("Country (optional): ")
	if err != nil {
		return model.Source{}, err
	}
	job, err := readLine("Job (optional): ")
	if err != nil {
		return model.Source{}, err
	}
	importance, err := readImportance(0.5)
	if err != nil {
		return model.Source{}, err
	}
	return st.GetOrCreateSource(ctx, name, country, job, importance)
}

// chooseSide mirrors chooseSource for the side dimension.
func chooseSide(ctx context.Context, st model.Store, s styles) (model.Side, error) {
	for {
		sides, err := st.ListSides(ctx, "", menuLimit)
		if err != nil {
			return model.Side{}, err
		}
		fmt.Fprintln(os.Stderr, s.sectionHeader("Select a side"))
		for i, side := range sides {
			fmt.Fprintf(os.Stderr, "  %2d. %s %s\n", i+1, side.Name,
				s.dim(fmt.Sprintf("(importance %.1f)", side.Importance)))
		}
		fmt.Fprintln(os.Stderr, s.dim("  or type a name to select or create it"))

		line, err := readLine("> ")
		if err != nil {
			return model.Side{}, err
		}
		if line == "" {
			continue
		}
		if idx, ok := menuIndex(line, len(sides)); ok {
			return sides[idx], nil
		}
		importance, err := readImportance(0.5)
		if err != nil {
			return model.Side{}, err
		}
		return st.GetOrCreateSide(ctx, line, importance)
	}
}

// menuIndex parses a 1-based menu pick.
func menuIndex(line string, n int) (int, bool) {
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > n {
		return 0, false
	}
	return idx - 1, true
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
