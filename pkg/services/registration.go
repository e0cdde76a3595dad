package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/digitalocean/registration-wizard/pkg/clients/codebuddy"
	"github.com/digitalocean/registration-wizard/pkg/models"
	"github.com/digitalocean/registration-wizard/pkg/utils"
)

var ErrSubmissionRejected = errors.New("registration rejected")

//go:generate mockgen -destination=../mocks/mock_services.go -package=mocks -source=registration.go

// RegistrationService sends a completed form for registration
type RegistrationService interface {
	Submit(ctx context.Context, form models.FormData) (models.SubmitAck, error)
}

// PostsService loads the posts shown once registration is done
type PostsService interface {
	FetchPosts(ctx context.Context) ([]models.Post, error)
}

type registrationServiceImpl struct {
	client codebuddy.Client
	strict bool
}

// NewRegistrationService creates a new registration service. In strict mode
// an answer with a non-2xx status counts as a failure.
func NewRegistrationService(client codebuddy.Client, strict bool) RegistrationService {
	return &registrationServiceImpl{
		client: client,
		strict: strict,
	}
}

// Submit drops the UI-only consent flag and sends the rest of the form
func (s *registrationServiceImpl) Submit(ctx context.Context, form models.FormData) (models.SubmitAck, error) {
	emailHash := utils.Fingerprint(form.EmailID)

	log.Printf("Submitting registration for %s", emailHash)

	ack, err := s.client.Register(ctx, form.Registration())
	if err != nil {
		log.Printf("Error submitting registration for %s: %v", emailHash, err)
		return models.SubmitAck{}, err
	}

	if ack.StatusCode < http.StatusOK || ack.StatusCode >= http.StatusMultipleChoices {
		if s.strict {
			log.Printf("Registration for %s rejected with status %d: %s", emailHash, ack.StatusCode, string(ack.Body))
			return models.SubmitAck{}, fmt.Errorf("%w: status %d", ErrSubmissionRejected, ack.StatusCode)
		}
		log.Printf("Registration for %s answered with status %d, treating as accepted", emailHash, ack.StatusCode)
	}

	log.Printf("Successfully submitted registration for %s", emailHash)
	return ack, nil
}

type postsServiceImpl struct {
	client codebuddy.Client
}

// NewPostsService creates a new posts service
func NewPostsService(client codebuddy.Client) PostsService {
	return &postsServiceImpl{client: client}
}

func (s *postsServiceImpl) FetchPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.client.ListPosts(ctx)
	if err != nil {
		log.Printf("Error fetching posts: %v", err)
		return nil, err
	}
	return posts, nil
}
