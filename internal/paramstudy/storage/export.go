package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/paramstudy/internal/paramstudy"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func headers(st *paramstudy.Study) []string {
	return append([]string{paramstudy.SetNameColumn, paramstudy.SetHashColumn}, st.ParameterNames()...)
}

func textRows(st *paramstudy.Study) [][]string {
	names := st.ParameterNames()
	out := make([][]string, 0, st.Len())
	for _, r := range st.Rows() {
		row := []string{r.Name, r.Hash}
		for _, name := range names {
			row = append(row, r.Set[name].Text())
		}
		out = append(out, row)
	}
	return out
}

// WriteTable renders the study as a bordered table, one row per set.
func WriteTable(w io.Writer, st *paramstudy.Study) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers(st)...).
		Rows(textRows(st)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// WriteCSV writes a header row followed by one row per set.
func WriteCSV(w io.Writer, st *paramstudy.Study) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers(st)); err != nil {
		return err
	}
	if err := cw.WriteAll(textRows(st)); err != nil {
		return err
	}
	return cw.Error()
}

// WriteYAML writes set_name -> {parameter: value} mappings in set order,
// with parameters in declared order.
func WriteYAML(w io.Writer, st *paramstudy.Study) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	names := st.ParameterNames()
	for _, r := range st.Rows() {
		doc.Content = append(doc.Content, stringNode(r.Name), setNode(names, r.Set))
	}
	return encodeYAML(w, doc)
}

func encodeYAML(w io.Writer, node *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}

func setNode(names []string, set paramstudy.ParameterSet) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range names {
		m.Content = append(m.Content, stringNode(name), valueNode(set[name]))
	}
	return m
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// valueNode tags each scalar so it reads back with its original kind.
func valueNode(v paramstudy.Value) *yaml.Node {
	switch v.Kind() {
	case paramstudy.KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.Text()}
	case paramstudy.KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(v.Float64())}
	case paramstudy.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.Text()}
	}
	return stringNode(v.Text())
}

// yamlFloat formats f so that a YAML parser resolves it as a float.
func yamlFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
