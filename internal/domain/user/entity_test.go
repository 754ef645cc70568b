package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type UserTestSuite struct {
	suite.Suite
}

func validRegistration() Registration {
	return Registration{
		Username: "chef_anna",
		Email:    "Anna@Example.com ",
		Password: "secret1",
		Bio:      "Cooks soup",
		Country:  "Italy",
	}
}

func (suite *UserTestSuite) TestNewUser() {
	suite.Run("ValidRegistration_ShouldCreateUser", func() {
		u, err := NewUser(validRegistration(), bcrypt.MinCost)

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "chef_anna", u.Username())
		assert.Equal(suite.T(), "anna@example.com", u.Email())
		assert.NotEqual(suite.T(), "secret1", u.PasswordHash())
		assert.True(suite.T(), u.CheckPassword("secret1"))
		assert.False(suite.T(), u.CheckPassword("secret2"))
		assert.Equal(suite.T(), "Italy", u.Country())
	})

	suite.Run("InvalidInput_ShouldFail", func() {
		cases := []struct {
			name   string
			mutate func(*Registration)
			err    error
		}{
			{"EmptyUsername", func(r *Registration) { r.Username = "" }, ErrUsernameRequired},
			{"ShortUsername", func(r *Registration) { r.Username = "ab" }, ErrInvalidUsername},
			{"BadUsernameChars", func(r *Registration) { r.Username = "anna-b" }, ErrInvalidUsername},
			{"LongUsername", func(r *Registration) { r.Username = strings.Repeat("a", 31) }, ErrInvalidUsername},
			{"EmptyEmail", func(r *Registration) { r.Email = " " }, ErrEmailRequired},
			{"BadEmail", func(r *Registration) { r.Email = "anna@" }, ErrInvalidEmail},
			{"ShortPassword", func(r *Registration) { r.Password = "12345" }, ErrPasswordTooShort},
			{"EmptyPassword", func(r *Registration) { r.Password = "" }, ErrPasswordRequired},
			{"LongBio", func(r *Registration) { r.Bio = strings.Repeat("b", 1001) }, ErrBioTooLong},
			{"LongCountry", func(r *Registration) { r.Country = strings.Repeat("c", 101) }, ErrCountryTooLong},
		}

		for _, tc := range cases {
			reg := validRegistration()
			tc.mutate(&reg)

			u, err := NewUser(reg, bcrypt.MinCost)
			assert.Nil(suite.T(), u, tc.name)
			assert.ErrorIs(suite.T(), err, tc.err, tc.name)
		}
	})
}

func (suite *UserTestSuite) TestChangePassword() {
	u, err := NewUser(validRegistration(), bcrypt.MinCost)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), u.ChangePassword("another1", bcrypt.MinCost))
	assert.True(suite.T(), u.CheckPassword("another1"))
	assert.False(suite.T(), u.CheckPassword("secret1"))

	assert.ErrorIs(suite.T(), u.ChangePassword("123", bcrypt.MinCost), ErrPasswordTooShort)
	assert.True(suite.T(), u.CheckPassword("another1"))
}

func (suite *UserTestSuite) TestSnapshotRoundTrip() {
	u, err := NewUser(validRegistration(), bcrypt.MinCost)
	require.NoError(suite.T(), err)

	restored := FromSnapshot(u.Snapshot())

	assert.Equal(suite.T(), u.Snapshot(), restored.Snapshot())
	assert.True(suite.T(), restored.CheckPassword("secret1"))
}

func TestUserTestSuite(t *testing.T) {
	suite.Run(t, new(UserTestSuite))
}
