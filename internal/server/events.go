package server

import (
	"context"
	"encoding/json"
	"log"

	"atelier/internal/service"
)

// Event type constants prevent typos in event names.
const (
	EventWorkshopPublished     = "workshop_published"
	EventWorkshopArchived      = "workshop_archived"
	EventRegistrationConfirmed = "registration_confirmed"
	EventRegistrationWaitlist  = "registration_waitlisted"
	EventRegistrationReviewed  = "registration_reviewed"
	EventWaitlistPromoted      = "waitlist_promoted"
	EventCheckinRecorded       = "checkin_recorded"
	EventSubmissionReviewed    = "submission_reviewed"
	EventLevelUp               = "level_up"
)

func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := s.notifier.PublishUser(context.Background(), userID, string(eventJSON)); err != nil {
		log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
	}
}

func (s *Server) publishBroadcastEvent(eventType string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := s.notifier.PublishBroadcast(context.Background(), string(eventJSON)); err != nil {
		log.Printf("failed to publish %s broadcast event: %v", eventType, err)
	}
}

func (s *Server) publishWorkshopEvent(workshopID uint, eventType string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := s.notifier.PublishWorkshop(context.Background(), workshopID, string(eventJSON)); err != nil {
		log.Printf("failed to publish %s event for workshop %d: %v", eventType, workshopID, err)
	}
}

// publishLevelUpIfAny emits a level_up event when an award crossed a
// level boundary.
func (s *Server) publishLevelUpIfAny(userID uint, award *service.XpAward) {
	if !award.LeveledUp() {
		return
	}
	s.publishUserEvent(userID, EventLevelUp, map[string]interface{}{
		"user_id":        userID,
		"previous_level": award.PreviousLevel,
		"new_level":      award.NewLevel,
		"total_xp":       award.TotalXp,
	})
}
