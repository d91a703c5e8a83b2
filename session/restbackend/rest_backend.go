package restbackend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-testboard-client/apiclient"
	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	tokenPath = "/token"
	mePath    = "/users/me"

	// adminScope is the wildcard scope value granted to administrators.
	adminScope = "admin"
)

var (
	_ session.Backend = (*RestBackend)(nil)
	_ session.Revoker = (*RestBackend)(nil)
)

// RestBackend authenticates against the testboard REST API. Logins use the
// OAuth2 password grant on /token and identities come from the access
// token's claims.
type RestBackend struct {
	client     *apiclient.Client
	oauth      *oauth2.Config
	httpClient *http.Client
	now        func() time.Time
}

// Option defines a function type to modify the RestBackend instance.
type Option func(*RestBackend)

// WithHTTPClient sets the client used for the token endpoint.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(rb *RestBackend) {
		rb.httpClient = httpClient
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(rb *RestBackend) {
		rb.now = nowFunc
	}
}

func New(client *apiclient.Client, options ...Option) (*RestBackend, error) {
	if client == nil {
		return nil, errors.New("[restbackend.New] api client is required")
	}

	rb := &RestBackend{
		client: client,
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  client.BaseURL() + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range options {
		opt(rb)
	}
	return rb, nil
}

func (rb *RestBackend) ResolveCredentials(ctx context.Context, credentials session.Credentials) (session.Identity, string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, rb.httpClient)
	tok, err := rb.oauth.PasswordCredentialsToken(ctx, credentials.Username, credentials.Password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			switch retrieveErr.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				return session.Identity{}, "", apperrors.ErrInvalidCredentials
			}
		}
		return session.Identity{}, "", apperrors.Wrapf(err, "[RestBackend.ResolveCredentials] token request")
	}

	identity, err := rb.identityFromClaims(tok.AccessToken)
	if err != nil {
		return session.Identity{}, "", err
	}
	return identity, tok.AccessToken, nil
}

// ResolveToken checks expiry locally and then asks the API who the token
// belongs to. Deployments without a readable /users/me (404 or 405) are
// answered from the claims alone.
func (rb *RestBackend) ResolveToken(ctx context.Context, token string) (session.Identity, error) {
	identity, err := rb.identityFromClaims(token)
	if err != nil {
		return session.Identity{}, err
	}

	res, err := rb.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   mePath,
		Header: bearer(token),
	})
	if apiErr, ok := apiclient.AsAPIError(err); ok && whoAmIUnavailable(apiErr.StatusCode) {
		log.Debug().Int("status", apiErr.StatusCode).Msg("No who-am-I endpoint, using token claims")
		return identity, nil
	}
	if err != nil {
		return session.Identity{}, err
	}

	var me meResponse
	if err := res.Decode(&me); err != nil {
		return session.Identity{}, apperrors.Wrapf(err, "[RestBackend.ResolveToken] decode %s", mePath)
	}
	if me.Username != "" && me.Username != identity.Username {
		log.Debug().Str("claim", identity.Username).Str("api", me.Username).Msg("Token subject does not match API identity")
		return session.Identity{}, apperrors.ErrInvalidToken
	}
	if me.Scopes != nil {
		identity.IsAdmin = isAdminScope(me.Scopes)
	}
	return identity, nil
}

// Revoke invalidates the token on the server.
func (rb *RestBackend) Revoke(ctx context.Context, token string) error {
	_, err := rb.client.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   tokenPath,
		Header: bearer(token),
	})
	return err
}

type meResponse struct {
	Username string         `json:"username"`
	Scopes   map[string]any `json:"scopes"`
}

func (rb *RestBackend) identityFromClaims(token string) (session.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return session.Identity{}, apperrors.ErrNoToken
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(token, jwtlib.MapClaims{})
	if err != nil {
		return session.Identity{}, apperrors.Wrapf(apperrors.ErrInvalidToken, "[RestBackend] %v", err)
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return session.Identity{}, apperrors.ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return session.Identity{}, apperrors.ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return session.Identity{}, apperrors.ErrInvalidToken
	}
	if exp != nil && !rb.now().Before(exp.Time) {
		return session.Identity{}, apperrors.ErrTokenExpired
	}

	scopes, _ := claims["scopes"].(map[string]any)
	return session.Identity{Username: sub, IsAdmin: isAdminScope(scopes)}, nil
}

func whoAmIUnavailable(status int) bool {
	return status == http.StatusNotFound || status == http.StatusMethodNotAllowed
}

func isAdminScope(scopes map[string]any) bool {
	value, _ := scopes["*"].(string)
	return value == adminScope
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}
