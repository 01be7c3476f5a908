package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/story"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story.json|story.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &StoryValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Println("Story file is valid!")
}

type StoryValidator struct {
	errors   []string
	warnings []string
}

var storyExtensions = []string{".json", ".yaml", ".yml"}

func (v *StoryValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if !isStoryExtension(ext) {
		return fmt.Errorf("story file must have one of %s extensions: %s", strings.Join(storyExtensions, ", "), baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ext)
	if !isValidStoryFilename(nameWithoutExt) {
		return fmt.Errorf("story filename '%s' must be lowercase snake_case (e.g., my_story.json, not my-story.json or MyStory.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return v.validateData(data, filename)
}

func (v *StoryValidator) validateData(data []byte, filename string) error {
	v.errors = nil
	v.warnings = nil

	doc, err := story.Parse(data)
	if err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	v.validateDocument(doc)
	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	v.smokeTest(data, startKnot(doc))
	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func startKnot(doc *story.Document) string {
	if doc.Start != "" {
		return doc.Start
	}
	return "start"
}

func (v *StoryValidator) validateDocument(doc *story.Document) {
	for _, name := range doc.KnotNames() {
		v.validateIDFormat("knot ID", name)
	}

	vars := make([]string, 0, len(doc.Variables))
	for name := range doc.Variables {
		vars = append(vars, name)
	}
	sort.Strings(vars)
	for _, name := range vars {
		if !isValidVariableName(name) {
			v.addError(fmt.Sprintf("variable '%s' must be lowercase snake_case", name))
		}
	}

	start := startKnot(doc)
	if _, ok := doc.Knots[start]; !ok {
		v.addError(fmt.Sprintf("start knot '%s' does not exist", start))
		return
	}
	for _, name := range doc.Unreachable(start) {
		v.warnings = append(v.warnings, fmt.Sprintf("knot '%s' is unreachable from '%s'", name, start))
	}
}

// smokeTest starts the story the way a session would and fails if the first
// turn cannot be resolved.
func (v *StoryValidator) smokeTest(data []byte, start string) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := narrative.New(data, story.Factory, narrative.WithLogger(quiet))
	view, err := ctrl.Start(start)
	if err != nil {
		v.addError(fmt.Sprintf("story does not start: %v", err))
		return
	}
	if view.DisplayText == "" && !view.HasChoices() {
		v.warnings = append(v.warnings, "first turn shows no text and offers no choices")
	}
}

func (v *StoryValidator) validateIDFormat(fieldName, id string) {
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' must be lowercase snake_case", fieldName, id))
	}
}

func (v *StoryValidator) addError(msg string) {
	v.errors = append(v.errors, msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validVarRegex      = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidVariableName(name string) bool {
	return validVarRegex.MatchString(name)
}

func isValidStoryFilename(name string) bool {
	return validFilenameRegex.MatchString(name)
}

func isStoryExtension(ext string) bool {
	for _, e := range storyExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
