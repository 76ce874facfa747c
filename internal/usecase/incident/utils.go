package incident

import (
	"strconv"
	"strings"
)

func cacheStatusKey(incidentID int64) string {
	return "incident_status:" + strconv.FormatInt(incidentID, 10)
}

func departmentMetadata(departmentID *int64) map[string]string {
	if departmentID == nil {
		return map[string]string{"department": ""}
	}
	return map[string]string{"department": strconv.FormatInt(*departmentID, 10)}
}

func validDescription(text string) bool {
	return len(strings.TrimSpace(text)) >= minDescriptionLength
}

func derefNotes(notes *string) string {
	if notes == nil {
		return ""
	}
	return strings.TrimSpace(*notes)
}
