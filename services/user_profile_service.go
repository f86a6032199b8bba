package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"luvlang_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProfileHook runs after every successful profile write.
type ProfileHook func(ctx context.Context, profile models.Profile, created bool)

type UserProfileService struct {
	Dynamo    *DynamoService
	Answers   *CompatibilityService
	Policy    models.Policy
	Now       func() time.Time
	AfterSave []ProfileHook
}

const maxMutateAttempts = 3

// errUnchanged lets a mutation skip the write.
var errUnchanged = errors.New("unchanged")

func (ups *UserProfileService) now() time.Time {
	if ups.Now != nil {
		return ups.Now()
	}
	return time.Now()
}

// Get returns the stored profile or ErrProfileNotFound.
func (ups *UserProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	item, err := ups.Dynamo.GetItem(ctx, models.ProfilesTable, StringKey("userId", userID))
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		log.Printf("❌ Failed to read profile %s: %v", userID, err)
		return nil, err
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// GetWithAnswers returns the profile with its compatibility answers merged in.
func (ups *UserProfileService) GetWithAnswers(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := ups.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ups.Answers == nil {
		return profile, nil
	}
	answers, err := ups.Answers.Get(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Could not load compatibility answers for %s: %v", userID, err)
		return profile, nil
	}
	profile.Compatibility = answers
	return profile, nil
}

// Save writes the complete record: an insert when existed is false, otherwise
// an update guarded by the version the caller read.
func (ups *UserProfileService) Save(ctx context.Context, profile *models.Profile, existed bool) error {
	now := ups.now().UTC().Format(time.RFC3339)
	next := *profile
	next.UpdatedAt = now
	next.Version = profile.Version + 1

	var (
		condition string
		names     map[string]string
		values    map[string]types.AttributeValue
	)
	if existed {
		condition = "#version = :version"
		if profile.Version == 0 {
			// Records written by older clients carry no version attribute.
			condition = "attribute_not_exists(#version) OR #version = :version"
		}
		names = map[string]string{"#version": "version"}
		values = map[string]types.AttributeValue{
			":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", profile.Version)},
		}
	} else {
		next.CreatedAt = now
		condition = "attribute_not_exists(userId)"
	}

	err := ups.Dynamo.PutItemWithCondition(ctx, models.ProfilesTable, next, condition, names, values)
	if errors.Is(err, ErrConditionFailed) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	*profile = next
	if existed {
		log.Printf("✅ Profile %s updated (version %d)", profile.UserID, profile.Version)
	} else {
		log.Printf("🆕 Profile %s created", profile.UserID)
	}
	for _, hook := range ups.AfterSave {
		hook(ctx, next, !existed)
	}
	return nil
}

// Mutate reads the profile (or starts a fresh one), lets fn merge changes into
// the full record, and saves it, retrying on concurrent modification.
func (ups *UserProfileService) Mutate(ctx context.Context, userID string, fn func(p *models.Profile, existed bool) error) (*models.Profile, error) {
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		existed := true
		profile, err := ups.Get(ctx, userID)
		if errors.Is(err, ErrProfileNotFound) {
			existed = false
			profile = &models.Profile{UserID: userID}
		} else if err != nil {
			return nil, err
		}

		if err := fn(profile, existed); err != nil {
			if errors.Is(err, errUnchanged) {
				return profile, nil
			}
			return nil, err
		}

		err = ups.Save(ctx, profile, existed)
		if errors.Is(err, ErrVersionConflict) {
			log.Printf("🔁 Profile %s changed underneath us, retrying (%d/%d)", userID, attempt, maxMutateAttempts)
			continue
		}
		if err != nil {
			return nil, err
		}
		return profile, nil
	}
	return nil, ErrVersionConflict
}

// AppendPhoto adds url to the end of the photo list. Appending a URL that is
// already present is a no-op, so replays never duplicate entries.
func (ups *UserProfileService) AppendPhoto(ctx context.Context, userID, url string, max int) (*models.Profile, error) {
	return ups.Mutate(ctx, userID, func(p *models.Profile, _ bool) error {
		if p.HasPhoto(url) {
			return errUnchanged
		}
		if len(p.Photos) >= max {
			return ErrPhotoLimitReached
		}
		p.Photos = append(p.Photos, url)
		return nil
	})
}

// RemovePhoto drops url from the list; the next photo becomes primary.
func (ups *UserProfileService) RemovePhoto(ctx context.Context, userID, url string) (*models.Profile, error) {
	return ups.Mutate(ctx, userID, func(p *models.Profile, existed bool) error {
		if !existed || !p.HasPhoto(url) {
			return ErrPhotoNotFound
		}
		photos := make([]string, 0, len(p.Photos)-1)
		for _, existing := range p.Photos {
			if existing != url {
				photos = append(photos, existing)
			}
		}
		p.Photos = photos
		return nil
	})
}

// SetPrimaryPhoto moves url to index 0.
func (ups *UserProfileService) SetPrimaryPhoto(ctx context.Context, userID, url string) (*models.Profile, error) {
	return ups.Mutate(ctx, userID, func(p *models.Profile, existed bool) error {
		if !existed || !p.HasPhoto(url) {
			return ErrPhotoNotFound
		}
		if p.PrimaryPhoto() == url {
			return errUnchanged
		}
		photos := []string{url}
		for _, existing := range p.Photos {
			if existing != url {
				photos = append(photos, existing)
			}
		}
		p.Photos = photos
		return nil
	})
}

func (ups *UserProfileService) SetVoiceIntro(ctx context.Context, userID, url string) (*models.Profile, error) {
	return ups.Mutate(ctx, userID, func(p *models.Profile, _ bool) error {
		if p.VoiceIntroURL == url {
			return errUnchanged
		}
		p.VoiceIntroURL = url
		return nil
	})
}

// UpdateProfile merges the supplied fields onto the stored record.
func (ups *UserProfileService) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	if update.Bio != nil {
		if result := ValidateBio(ups.Policy, *update.Bio); !result.OK {
			return nil, &ValidationError{Result: result}
		}
	}
	return ups.Mutate(ctx, userID, func(p *models.Profile, _ bool) error {
		update.Apply(p)
		return nil
	})
}

// SaveProfileWithAnswers updates the profile and then the compatibility
// answers. The two writes are not atomic: if the second fails the first stays
// committed and a *PartialWriteError is returned alongside the saved profile.
func (ups *UserProfileService) SaveProfileWithAnswers(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	profile, err := ups.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	if update.Compatibility == nil || ups.Answers == nil {
		return profile, nil
	}

	answers, err := ups.Answers.Save(ctx, userID, update.Compatibility)
	if err != nil {
		log.Printf("⚠️ Profile %s saved but answers failed: %v", userID, err)
		return profile, &PartialWriteError{Committed: models.ProfilesTable, Failed: models.CompatibilityAnswersTable, Err: err}
	}
	profile.Compatibility = answers
	return profile, nil
}

// ListAll scans every profile. Used by nightly jobs.
func (ups *UserProfileService) ListAll(ctx context.Context) ([]models.Profile, error) {
	items, err := ups.Dynamo.ScanExcluding(ctx, models.ProfilesTable, nil, 0)
	if err != nil {
		return nil, err
	}
	var profiles []models.Profile
	if err := attributevalue.UnmarshalListOfMaps(items, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profiles: %w", err)
	}
	return profiles, nil
}
