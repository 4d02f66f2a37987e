package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks the operator questions on a line-oriented terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading answers from in and writing questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints label and returns the trimmed answer line
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a y/n question; only "y" (any case) counts as yes
func (p *Prompter) Confirm(label string) (bool, error) {
	answer, err := p.Ask(label + " (y/n): ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y"), nil
}

// AskQuery collects query parameters interactively
func (p *Prompter) AskQuery() (*QueryParams, error) {
	fmt.Fprintln(p.out, "\n请输入查询参数:")

	var params QueryParams
	var err error
	if params.FromStation, err = p.Ask("请输入出发站（如北京）: "); err != nil {
		return nil, err
	}
	if params.ToStation, err = p.Ask("请输入到达站（如上海）: "); err != nil {
		return nil, err
	}
	if params.TrainDate, err = p.Ask("请输入出发日期（格式: YYYY-MM-DD）: "); err != nil {
		return nil, err
	}

	trains, err := p.Ask("请输入要监控的车次（多个车次用逗号分隔，留空监控所有车次）: ")
	if err != nil {
		return nil, err
	}
	params.TrainCodes = SplitList(trains)

	seats, err := p.Ask("请输入要监控的座位类型（多个类型用逗号分隔，留空监控常用类型）: ")
	if err != nil {
		return nil, err
	}
	params.SeatTypes = SplitList(seats)

	interval, err := p.Ask("请输入查询间隔（秒，建议不少于30秒）: ")
	if err != nil {
		return nil, err
	}
	if interval != "" {
		n, convErr := strconv.Atoi(interval)
		if convErr != nil {
			return nil, fmt.Errorf("invalid interval %q: %w", interval, convErr)
		}
		params.Interval = n
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}

// Describe writes a human-readable summary of the parameters
func Describe(w io.Writer, params QueryParams) {
	fmt.Fprintf(w, "出发站: %s\n", params.FromStation)
	fmt.Fprintf(w, "到达站: %s\n", params.ToStation)
	fmt.Fprintf(w, "出发日期: %s\n", params.TrainDate)
	fmt.Fprintf(w, "监控车次: %s\n", joinOr(params.TrainCodes, "所有车次"))
	fmt.Fprintf(w, "座位类型: %s\n", joinOr(params.SeatTypes, "常用类型"))
	fmt.Fprintf(w, "查询间隔: %d秒\n", params.Interval)
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
