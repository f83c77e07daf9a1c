package cas

import (
	"io"
	"log/slog"
	"strings"

	"github.com/beevik/etree"
)

// Namespace is the XML namespace of CAS 2.0/3.0 validation responses.
const Namespace = "http://www.yale.edu/tp/cas"

// ValidationResult is the normalized outcome of a ticket validation call.
// Attributes values are either string (single occurrence) or []string
// (repeated attribute tags, in document order); only CAS 3.0 responses
// carry attributes. The zero value is an invalid result.
type ValidationResult struct {
	Valid          bool
	Username       string
	Attributes     map[string]any
	FailureCode    string
	FailureMessage string
}

// parseV1 consumes a CAS 1.0 plaintext response: exactly two lines, the
// first a literal "yes" or "no", the second the username. Anything else is
// an invalid result, never an error.
func parseV1(body io.ReadCloser, logger *slog.Logger) *ValidationResult {
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		logger.Error("failed to read CAS 1.0 response", "error", err)
		return &ValidationResult{}
	}

	lines := strings.Split(string(data), "\n")
	// a terminating newline produces one empty trailing element
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) != 2 {
		logger.Error("CAS returned unexpected 1.0 response", "lines", len(lines))
		return &ValidationResult{}
	}

	if strings.TrimSpace(lines[0]) != "yes" {
		return &ValidationResult{}
	}
	return &ValidationResult{
		Valid:    true,
		Username: strings.TrimSpace(lines[1]),
	}
}

// parseV2 consumes a CAS 2.0 XML response. A cas:user element anywhere
// under the root signals success and carries the username.
func parseV2(body io.ReadCloser, logger *slog.Logger) *ValidationResult {
	return parseXML(body, false, logger)
}

// parseV3 consumes a CAS 3.0 XML response: CAS 2.0 plus a cas:attributes
// element whose children are folded into the attribute map.
func parseV3(body io.ReadCloser, logger *slog.Logger) *ValidationResult {
	return parseXML(body, true, logger)
}

func parseXML(body io.ReadCloser, withAttributes bool, logger *slog.Logger) *ValidationResult {
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		logger.Error("failed to parse CAS validation response", "error", err)
		return &ValidationResult{}
	}
	root := doc.Root()
	if root == nil {
		logger.Error("empty CAS validation response")
		return &ValidationResult{}
	}

	user := findCASElement(root, "user")
	if user == nil {
		if failure := findCASElement(root, "authenticationFailure"); failure != nil {
			code := failure.SelectAttrValue("code", "")
			message := strings.TrimSpace(failure.Text())
			logger.Error("CAS authentication failure", "code", code, "message", message)
			return &ValidationResult{FailureCode: code, FailureMessage: message}
		}
		logger.Error("unknown CAS validation response", "root", root.Tag)
		return &ValidationResult{}
	}

	result := &ValidationResult{
		Valid:    true,
		Username: user.Text(),
	}
	if withAttributes {
		result.Attributes = make(map[string]any)
		if attrs := findCASElement(root, "attributes"); attrs != nil {
			for _, child := range attrs.ChildElements() {
				foldAttribute(result.Attributes, child.Tag, child.Text())
			}
		}
	}
	return result
}

// findCASElement returns the first descendant of root with the given local
// name in the CAS namespace, searching depth-first so the element is found
// at whatever nesting level the server put it. Elements without a declared
// namespace are accepted for the benefit of lax servers.
func findCASElement(root *etree.Element, local string) *etree.Element {
	for _, child := range root.ChildElements() {
		if child.Tag == local && inCASNamespace(child) {
			return child
		}
		if found := findCASElement(child, local); found != nil {
			return found
		}
	}
	return nil
}

func inCASNamespace(e *etree.Element) bool {
	uri := e.NamespaceURI()
	return uri == Namespace || uri == ""
}

// foldAttribute merges a repeated attribute tag into the map: a single
// occurrence stays a string, the second turns it into a two-element slice,
// later ones append.
func foldAttribute(attributes map[string]any, key, value string) {
	switch existing := attributes[key].(type) {
	case nil:
		attributes[key] = value
	case string:
		attributes[key] = []string{existing, value}
	case []string:
		attributes[key] = append(existing, value)
	}
}
