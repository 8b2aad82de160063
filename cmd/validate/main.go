package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

func main() {
	filename := filepath.Join("data", "products.yaml")
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}

	fmt.Printf("Validating %s...\n", filename)
	if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
		fmt.Fprintf(os.Stderr, "Validation failed: catalog file must have a .yaml extension: %s\n", filename)
		os.Exit(1)
	}

	products, err := catalog.Load(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	var warnings []string
	for _, p := range products {
		if p.UnlockLevel >= journey.ModuleCount {
			warnings = append(warnings, fmt.Sprintf("product %d (%s) unlocks at %d, after the last module", p.ID, p.Name, p.UnlockLevel))
		}
		if p.ImageURL == "" {
			warnings = append(warnings, fmt.Sprintf("product %d (%s) has no image_url", p.ID, p.Name))
		}
	}
	if len(catalog.FreeMeditations(products)) == 0 {
		warnings = append(warnings, "no free meditation tracks; the meditations panel will be empty")
	}

	counts := make(map[catalog.ProductType]int)
	for _, p := range products {
		counts[p.Type]++
	}
	for _, t := range catalog.Types {
		fmt.Printf("  %-10s %d\n", t, counts[t])
	}
	for _, w := range warnings {
		fmt.Printf("WARNING: %s\n", w)
	}

	fmt.Printf("Catalog is valid! %d products.\n", len(products))
}
