package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(properties []models.Property) *models.MarketReport {
	report := &models.MarketReport{
		TopByValue:               []models.Property{},
		PropertiesByNeighborhood: make(map[string]int),
	}

	if len(properties) == 0 {
		return report
	}

	report.TotalProperties = len(properties)

	type priced struct {
		idx   int
		value float64
	}
	var pricedProps []priced
	var ppsf []float64

	for i := range properties {
		p := &properties[i]
		if v, ok := p.NumericValue(); ok && v > 0 {
			pricedProps = append(pricedProps, priced{idx: i, value: v})
		}
		if v, ok := p.PricePerSquareFoot(); ok {
			ppsf = append(ppsf, v)
		}
		if p.Neighborhood != "" {
			report.PropertiesByNeighborhood[p.Neighborhood]++
		}
	}

	// Value stats (only properties with a positive value)
	if len(pricedProps) > 0 {
		report.PricedProperties = len(pricedProps)
		report.MinValue = pricedProps[0].value
		report.MaxValue = pricedProps[0].value
		mostExpensive := pricedProps[0].idx
		var total float64
		for _, pp := range pricedProps {
			total += pp.value
			if pp.value < report.MinValue {
				report.MinValue = pp.value
			}
			if pp.value > report.MaxValue {
				report.MaxValue = pp.value
				mostExpensive = pp.idx
			}
		}
		report.AverageValue = round2(total / float64(len(pricedProps)))
		report.MinValue = round2(report.MinValue)
		report.MaxValue = round2(report.MaxValue)
		top := properties[mostExpensive].Clone()
		report.MostExpensive = &top
	}

	report.MedianPricePerSquareFoot = round2(Describe(ppsf).Median)

	// Top 5 by value
	sort.SliceStable(pricedProps, func(i, j int) bool {
		return pricedProps[i].value > pricedProps[j].value
	})
	for i := 0; i < len(pricedProps) && i < 5; i++ {
		report.TopByValue = append(report.TopByValue, properties[pricedProps[i].idx].Clone())
	}

	s.logger.Debug("[insights] %d properties, %d priced, %d neighborhoods",
		report.TotalProperties, report.PricedProperties, len(report.PropertiesByNeighborhood))
	return report
}

// Print renders the report as a colored terminal summary on w.
func (s *InsightService) Print(w io.Writer, r *models.MarketReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 MARKET INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total properties       : \033[1m%d\033[0m\n", r.TotalProperties)
	fmt.Fprintf(w, "  Properties with value  : \033[1m%d\033[0m\n", r.PricedProperties)
	fmt.Fprintln(w)

	// Value Stats
	fmt.Fprintf(w, "\033[1;33m  Value Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AverageValue > 0 {
		fmt.Fprintf(w, "  Average value : \033[1;32m$%.2f\033[0m\n", r.AverageValue)
		fmt.Fprintf(w, "  Minimum value : \033[1;32m$%.2f\033[0m\n", r.MinValue)
		fmt.Fprintf(w, "  Maximum value : \033[1;32m$%.2f\033[0m\n", r.MaxValue)
	} else {
		fmt.Fprintf(w, "  No value data available\n")
	}
	if r.MedianPricePerSquareFoot > 0 {
		fmt.Fprintf(w, "  Median $/sqft : \033[1;32m$%.2f\033[0m\n", r.MedianPricePerSquareFoot)
	}
	fmt.Fprintln(w)

	// Most Expensive
	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Property\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(displayName(r.MostExpensive), 50))
		fmt.Fprintf(w, "  Neighborhood : %s\n", r.MostExpensive.Neighborhood)
		fmt.Fprintf(w, "  Value        : \033[1;31m$%.2f\033[0m\n", r.MaxValue)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Top 5 by Value\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopByValue) == 0 {
		fmt.Fprintf(w, "  No valued properties found\n")
	} else {
		for i := range r.TopByValue {
			p := &r.TopByValue[i]
			v, _ := p.NumericValue()
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m$%.0f\033[0m\n",
				i+1, truncate(displayName(p), 38), v)
		}
	}
	fmt.Fprintln(w)

	// Properties by Neighborhood
	fmt.Fprintf(w, "\033[1;33m  Properties by Neighborhood\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.PropertiesByNeighborhood) == 0 {
		fmt.Fprintf(w, "  No neighborhood data\n")
	} else {
		type hoodCount struct {
			name  string
			count int
		}
		var hoods []hoodCount
		for name, cnt := range r.PropertiesByNeighborhood {
			hoods = append(hoods, hoodCount{name, cnt})
		}
		// count descending, then name, so output is stable across runs
		sort.Slice(hoods, func(i, j int) bool {
			if hoods[i].count != hoods[j].count {
				return hoods[i].count > hoods[j].count
			}
			return hoods[i].name < hoods[j].name
		})
		for _, h := range hoods {
			bar := strings.Repeat("█", h.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(h.name, 28), bar, h.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func displayName(p *models.Property) string {
	if p.Address != "" {
		return p.Address
	}
	return p.ID
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
