package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"taskapi/internal/domain"
	"taskapi/internal/domain/models"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeTitle trims, collapses internal whitespace and capitalizes the
// first rune. The result must be 1..200 characters.
func normalizeTitle(title string) (string, error) {
	processed := whitespaceRun.ReplaceAllString(strings.TrimSpace(title), " ")

	if processed == "" {
		return "", fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
	}

	runes := []rune(processed)
	runes[0] = unicode.ToUpper(runes[0])
	processed = string(runes)

	if len(runes) > maxTitleLength {
		return "", fmt.Errorf("%w: title cannot exceed %d characters", domain.ErrValidation, maxTitleLength)
	}

	return processed, nil
}

// normalizeDescription trims and collapses whitespace; an empty result
// normalizes to absent.
func normalizeDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}

	processed := whitespaceRun.ReplaceAllString(strings.TrimSpace(*description), " ")
	if processed == "" {
		return nil, nil
	}

	if len([]rune(processed)) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description cannot exceed %d characters", domain.ErrValidation, maxDescriptionLength)
	}

	return &processed, nil
}

func normalizePriority(priority models.Priority) (models.Priority, error) {
	if priority == "" {
		return models.PriorityMedium, nil
	}
	if !priority.Valid() {
		return "", fmt.Errorf("%w: priority must be one of: low, medium, high", domain.ErrValidation)
	}
	return priority, nil
}

// normalizeCreate validates and normalizes creation data before it reaches
// a repository.
func normalizeCreate(data models.CreateTaskData) (models.CreateTaskData, error) {
	title, err := normalizeTitle(data.Title)
	if err != nil {
		return models.CreateTaskData{}, err
	}

	description, err := normalizeDescription(data.Description)
	if err != nil {
		return models.CreateTaskData{}, err
	}

	priority, err := normalizePriority(data.Priority)
	if err != nil {
		return models.CreateTaskData{}, err
	}

	return models.CreateTaskData{
		Title:       title,
		Description: description,
		Completed:   data.Completed,
		Priority:    priority,
		DueDate:     data.DueDate,
	}, nil
}

// normalizeUpdate validates and normalizes the fields present in a partial
// update, leaving absent ones untouched.
func normalizeUpdate(updates models.UpdateTaskData) (models.UpdateTaskData, error) {
	out := updates

	if updates.Title != nil {
		title, err := normalizeTitle(*updates.Title)
		if err != nil {
			return models.UpdateTaskData{}, err
		}
		out.Title = &title
	}

	if updates.Description != nil {
		description, err := normalizeDescription(updates.Description)
		if err != nil {
			return models.UpdateTaskData{}, err
		}
		out.Description = description
		if description == nil {
			// A supplied-but-empty description clears the stored one.
			out.RemoveDescription = true
		}
	}

	if updates.Priority != nil {
		priority, err := normalizePriority(*updates.Priority)
		if err != nil {
			return models.UpdateTaskData{}, err
		}
		out.Priority = &priority
	}

	return out, nil
}
