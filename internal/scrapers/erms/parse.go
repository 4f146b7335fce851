package erms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"electorsearch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// parseTokens reads the hidden postback fields of a page, `cookie` is carried over as is.
func parseTokens(stage Stage, doc *goquery.Document, cookie string) (SessionTokens, error) {
	tokens := SessionTokens{Cookie: cookie}
	fields := []struct {
		id  string
		out *string
	}{
		{id: "__VIEWSTATE", out: &tokens.ViewState},
		{id: "__VIEWSTATEGENERATOR", out: &tokens.ViewStateGenerator},
		{id: "__EVENTVALIDATION", out: &tokens.EventValidation},
	}
	for _, f := range fields {
		value, ok := doc.Find("#" + f.id).Attr("value")
		if !ok {
			return SessionTokens{}, &ProtocolError{
				Stage:  stage,
				Reason: fmt.Sprintf("hidden field %s is missing", f.id),
			}
		}
		*f.out = value
	}
	return tokens, nil
}

func parseCaptchaPrompt(doc *goquery.Document) (string, error) {
	label := doc.Find("#lblCaptchaInfo")
	prompt := strings.TrimSpace(label.Text())
	if label.Length() == 0 || prompt == "" {
		return "", &ProtocolError{Stage: StageDropdown, Reason: "captcha prompt is missing"}
	}
	return prompt, nil
}

// the grid pager renders rows that only span part of the columns
func isRecordRow(row map[string]string) bool {
	return len(row) >= len(resultHeadings)
}

func parseRecords(doc *goquery.Document) (records []ElectorRecord, skipped int) {
	rows := htmlutil.TableToRows(doc.Find("#gvResults"), htmlutil.TableOptions{
		Headings: resultHeadings,
	})
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if !isRecordRow(row) {
			skipped++
			continue
		}
		records = append(records, recordFromRow(row))
	}
	return records, skipped
}

var statusRegex = regexp.MustCompile(`Page\s+(\d+)\s+of\s+(\d+)\s*[—–-]+\s*Total\s+Records:\s*(\d+)`)

// parseStatus fills in pagination from a message like
// "Page 1 of 3 — Total Records: 25", any other message leaves it zeroed.
func parseStatus(message string) Meta {
	meta := Meta{Message: message}
	groups := statusRegex.FindStringSubmatch(message)
	if len(groups) < 4 {
		return meta
	}
	meta.CurrentPage, _ = strconv.Atoi(groups[1])
	meta.TotalPages, _ = strconv.Atoi(groups[2])
	meta.TotalRecords, _ = strconv.Atoi(groups[3])
	return meta
}

func parseResultPage(doc *goquery.Document) (SearchResultPage, int) {
	records, skipped := parseRecords(doc)
	message := strings.TrimSpace(doc.Find("#lblResult").Text())
	return SearchResultPage{
		Records: records,
		Meta:    parseStatus(message),
	}, skipped
}
