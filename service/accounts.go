package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"time"

	"chorely/middleware"
	"chorely/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// AccountsService owns the identity lifecycle: registration (a two-step
// saga over the users collection), sign-in, contact updates, and account
// deletion.
type AccountsService struct {
	Users     UsersStore
	JWTSecret []byte
	Now       func() time.Time
}

type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
	Birthday    int64
	LookingFor  []string
}

type Credentials struct {
	Token  string
	UserID primitive.ObjectID
}

// Register creates an identity and its backing profile. Step 1 inserts the
// identity document (id, email, password hash); step 2 initializes the
// profile fields. If step 2 fails the identity is deleted best-effort so no
// orphaned account can sign in; a failed compensating delete is logged only,
// not retried.
func (s *AccountsService) Register(ctx context.Context, in RegisterInput) (Credentials, error) {
	if fields := validateRegistration(in); len(fields) > 0 {
		return Credentials{}, models.NewValidationError(fields)
	}

	exists, err := s.Users.EmailExists(ctx, in.Email)
	if err != nil {
		return Credentials{}, err
	}
	if exists {
		return Credentials{}, &models.AuthError{Reason: "email already in use"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Credentials{}, err
	}
	hashed := string(hash)

	identity := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        in.Email,
		PasswordHash: &hashed,
		CreatedAt:    s.now().Unix(),
	}
	if err := s.Users.Insert(ctx, identity); err != nil {
		return Credentials{}, err
	}

	profile := bson.M{
		"fullName":            in.FullName,
		"phoneNumber":         in.PhoneNumber,
		"birthday":            in.Birthday,
		"lookingFor":          in.LookingFor,
		"friends":             []primitive.ObjectID{},
		"pendingTasksCount":   0,
		"completedTasksCount": 0,
	}
	if in.LookingFor == nil {
		profile["lookingFor"] = []string{}
	}
	if err := s.Users.SetFields(ctx, identity.ID, profile); err != nil {
		// Compensate: remove the identity created in step 1.
		if delErr := s.Users.Delete(ctx, identity.ID); delErr != nil {
			log.Printf("[Register] Failed to delete identity %s after profile failure: %v", identity.ID.Hex(), delErr)
		}
		return Credentials{}, err
	}

	token, err := s.issueToken(identity.ID)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Token: token, UserID: identity.ID}, nil
}

// SignIn checks the password and issues a session token.
func (s *AccountsService) SignIn(ctx context.Context, email, password string) (Credentials, error) {
	user, err := s.Users.FetchByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return Credentials{}, &models.AuthError{Reason: "invalid email or password"}
	}
	if err != nil {
		return Credentials{}, err
	}
	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return Credentials{}, &models.AuthError{Reason: "invalid email or password"}
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Token: token, UserID: user.ID}, nil
}

func (s *AccountsService) UpdateEmail(ctx context.Context, id primitive.ObjectID, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return models.NewValidationError(map[string]string{"email": "malformed"})
	}
	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return &models.AuthError{Reason: "email already in use"}
	}
	return s.Users.SetFields(ctx, id, bson.M{"email": email})
}

type UpdateProfileInput struct {
	FullName   *string
	Birthday   *int64
	LookingFor []string
}

// UpdateProfile applies a partial $set of the provided fields. Omitted
// fields stay untouched; providing nothing is a no-op.
func (s *AccountsService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in UpdateProfileInput) error {
	fields := bson.M{}
	if in.FullName != nil {
		if *in.FullName == "" {
			return models.NewValidationError(map[string]string{"fullName": "required"})
		}
		fields["fullName"] = *in.FullName
	}
	if in.Birthday != nil {
		fields["birthday"] = *in.Birthday
	}
	if in.LookingFor != nil {
		fields["lookingFor"] = in.LookingFor
	}
	if len(fields) == 0 {
		return nil
	}
	return s.Users.SetFields(ctx, id, fields)
}

func (s *AccountsService) UpdatePhoneNumber(ctx context.Context, id primitive.ObjectID, phone string) error {
	if phone == "" {
		return models.NewValidationError(map[string]string{"phoneNumber": "required"})
	}
	return s.Users.SetFields(ctx, id, bson.M{"phoneNumber": phone})
}

// DeleteAccount removes the identity document. Events referencing the user
// are left in place; participation references are by value, not ownership.
func (s *AccountsService) DeleteAccount(ctx context.Context, id primitive.ObjectID) error {
	return s.Users.Delete(ctx, id)
}

func (s *AccountsService) issueToken(id primitive.ObjectID) (string, error) {
	now := s.now()
	claims := &middleware.Claims{
		UserID: id.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.JWTSecret)
}

// now never writes the receiver; services are shared across requests.
func (s *AccountsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validateRegistration(in RegisterInput) map[string]string {
	fields := map[string]string{}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		fields["email"] = "malformed"
	}
	if len(in.Password) < 6 {
		fields["password"] = "must be at least 6 characters"
	}
	if in.FullName == "" {
		fields["fullName"] = "required"
	}
	return fields
}
