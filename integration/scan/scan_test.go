package scan

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feO2x/lightinject"
)

type mailer struct{}

func newMailer() *mailer { return &mailer{} }

type sms struct{}

func newSMS() *sms { return &sms{} }

func TestRegisterAppliesEveryCandidate(t *testing.T) {
	c := lightinject.New()
	candidates := []Candidate{
		{ServiceType: reflect.TypeOf(&mailer{}), Constructor: newMailer},
		{ServiceType: reflect.TypeOf(&sms{}), Constructor: newSMS, Name: "primary"},
	}

	require.NoError(t, Register(c, candidates, nil))

	v, err := lightinject.Resolve[*mailer](c)
	require.NoError(t, err)
	assert.NotNil(t, v)

	s, err := lightinject.Resolve[*sms](c, lightinject.Named("primary"))
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRegisterHonorsShouldRegisterFilter(t *testing.T) {
	c := lightinject.New()
	candidates := []Candidate{
		{ServiceType: reflect.TypeOf(&mailer{}), Constructor: newMailer},
		{ServiceType: reflect.TypeOf(&sms{}), Constructor: newSMS},
	}

	require.NoError(t, Register(c, candidates, func(serviceType, _ reflect.Type) bool {
		return serviceType == reflect.TypeOf(&mailer{})
	}))

	_, err := lightinject.Resolve[*mailer](c)
	require.NoError(t, err)

	_, err = lightinject.Resolve[*sms](c)
	assert.Error(t, err)
}
