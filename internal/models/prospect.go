package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// Prospect is a potential customer moving through the inquiry pipeline.
type Prospect struct {
	ID            string
	Name          string
	Email         *string
	Phone         *string
	ContactMethod ContactMethod
	DateOfContact time.Time
	Notes         string
	Status        ProspectStatus
	// ConvertedAt is set when the prospect reaches Converted: the student's
	// registration date or the job's completion date.
	ConvertedAt *time.Time
	// StudentID links a converted LanguageTraining prospect to its Student record id.
	StudentID *string
	Service   ServiceDetails
	Attribution
}

// ServiceType returns the prospect's discriminant, or "" when no service is set.
func (p *Prospect) ServiceType() ServiceType {
	if p.Service == nil {
		return ""
	}
	return p.Service.ServiceType()
}

// Converted reports whether the prospect reached the terminal state.
func (p *Prospect) Converted() bool {
	return p.Status == ProspectConverted
}

// HistoryDate is the date completed-jobs history sorts and filters on.
func (p *Prospect) HistoryDate() time.Time {
	if p.ConvertedAt != nil {
		return *p.ConvertedAt
	}
	return p.DateOfContact
}

// Clone returns a deep copy.
func (p *Prospect) Clone() *Prospect {
	if p == nil {
		return nil
	}
	c := *p
	c.Email = cloneString(p.Email)
	c.Phone = cloneString(p.Phone)
	c.StudentID = cloneString(p.StudentID)
	c.ConvertedAt = cloneTime(p.ConvertedAt)
	c.Service = CloneServiceDetails(p.Service)
	return &c
}

// ServiceDetails is the closed set of service branches a prospect can be in.
// Implementations: TrainingService, TranslationService, InterpretationService.
type ServiceDetails interface {
	ServiceType() ServiceType
	isServiceDetails()
}

// LanguagePair is a source to target language mapping.
type LanguagePair struct {
	Source string `json:"sourceLanguage"`
	Target string `json:"targetLanguage"`
}

// TrainingService is the LanguageTraining branch.
type TrainingService struct {
	Languages []string
}

// TranslationService is the DocTranslation branch.
type TranslationService struct {
	Pair       LanguagePair
	Completion *TranslationCompletion
}

// InterpretationService is the Interpretation branch.
type InterpretationService struct {
	Pair       LanguagePair
	Completion *InterpretationCompletion
}

func (TrainingService) ServiceType() ServiceType       { return ServiceLanguageTraining }
func (TranslationService) ServiceType() ServiceType    { return ServiceDocTranslation }
func (InterpretationService) ServiceType() ServiceType { return ServiceInterpretation }

func (TrainingService) isServiceDetails()       {}
func (TranslationService) isServiceDetails()    {}
func (InterpretationService) isServiceDetails() {}

// TranslationCompletion holds the billed result of a document translation job.
type TranslationCompletion struct {
	CompletedAt   time.Time       `json:"completedAt"`
	DocumentTitle string          `json:"documentTitle"`
	Pages         int             `json:"pages"`
	RatePerPage   decimal.Decimal `json:"ratePerPage"`
	TotalFee      decimal.Decimal `json:"totalFee"`
}

// InterpretationCompletion holds the billed result of an interpretation job.
type InterpretationCompletion struct {
	CompletedAt time.Time       `json:"completedAt"`
	Subject     string          `json:"subject"`
	Duration    decimal.Decimal `json:"duration"`
	Unit        DurationUnit    `json:"durationUnit"`
	Rate        decimal.Decimal `json:"rate"`
	TotalFee    decimal.Decimal `json:"totalFee"`
}

// CloneServiceDetails deep-copies a service branch.
func CloneServiceDetails(d ServiceDetails) ServiceDetails {
	switch v := d.(type) {
	case nil:
		return nil
	case TrainingService:
		return TrainingService{Languages: append([]string(nil), v.Languages...)}
	case TranslationService:
		if v.Completion != nil {
			c := *v.Completion
			v.Completion = &c
		}
		return v
	case InterpretationService:
		if v.Completion != nil {
			c := *v.Completion
			v.Completion = &c
		}
		return v
	default:
		panic(fmt.Sprintf("unknown service details %T", d))
	}
}

// CompletionFee returns the billed total of a completed job.
func CompletionFee(d ServiceDetails) (decimal.Decimal, bool) {
	switch v := d.(type) {
	case TranslationService:
		if v.Completion != nil {
			return v.Completion.TotalFee, true
		}
	case InterpretationService:
		if v.Completion != nil {
			return v.Completion.TotalFee, true
		}
	}
	return decimal.Zero, false
}

type prospectJSON struct {
	ID                       string                    `json:"id"`
	Name                     string                    `json:"name"`
	Email                    *string                   `json:"email,omitempty"`
	Phone                    *string                   `json:"phone,omitempty"`
	ContactMethod            ContactMethod             `json:"contactMethod"`
	DateOfContact            time.Time                 `json:"dateOfContact"`
	Notes                    string                    `json:"notes"`
	Status                   ProspectStatus            `json:"status"`
	ConvertedAt              *time.Time                `json:"convertedAt,omitempty"`
	StudentID                *string                   `json:"studentId,omitempty"`
	ServiceInterestedIn      ServiceType               `json:"serviceInterestedIn"`
	TrainingLanguages        []string                  `json:"trainingLanguages,omitempty"`
	SourceLanguage           string                    `json:"sourceLanguage,omitempty"`
	TargetLanguage           string                    `json:"targetLanguage,omitempty"`
	TranslationCompletion    *TranslationCompletion    `json:"translationCompletion,omitempty"`
	InterpretationCompletion *InterpretationCompletion `json:"interpretationCompletion,omitempty"`
	Attribution
}

// MarshalJSON flattens the service branch under the serviceInterestedIn discriminant.
func (p Prospect) MarshalJSON() ([]byte, error) {
	out := prospectJSON{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		ContactMethod: p.ContactMethod,
		DateOfContact: p.DateOfContact,
		Notes:         p.Notes,
		Status:        p.Status,
		ConvertedAt:   p.ConvertedAt,
		StudentID:     p.StudentID,
		Attribution:   p.Attribution,
	}
	switch v := p.Service.(type) {
	case nil:
	case TrainingService:
		out.ServiceInterestedIn = ServiceLanguageTraining
		out.TrainingLanguages = v.Languages
	case TranslationService:
		out.ServiceInterestedIn = ServiceDocTranslation
		out.SourceLanguage, out.TargetLanguage = v.Pair.Source, v.Pair.Target
		out.TranslationCompletion = v.Completion
	case InterpretationService:
		out.ServiceInterestedIn = ServiceInterpretation
		out.SourceLanguage, out.TargetLanguage = v.Pair.Source, v.Pair.Target
		out.InterpretationCompletion = v.Completion
	default:
		return nil, fmt.Errorf("unknown service details %T", p.Service)
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the service branch from the serviceInterestedIn discriminant.
// Fields belonging to other branches are dropped.
func (p *Prospect) UnmarshalJSON(data []byte) error {
	var in prospectJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	service, err := NewServiceDetails(in.ServiceInterestedIn, in.TrainingLanguages, LanguagePair{Source: in.SourceLanguage, Target: in.TargetLanguage})
	if err != nil {
		return err
	}
	switch v := service.(type) {
	case TranslationService:
		v.Completion = in.TranslationCompletion
		service = v
	case InterpretationService:
		v.Completion = in.InterpretationCompletion
		service = v
	}
	*p = Prospect{
		ID:            in.ID,
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		ContactMethod: in.ContactMethod,
		DateOfContact: in.DateOfContact,
		Notes:         in.Notes,
		Status:        in.Status,
		ConvertedAt:   in.ConvertedAt,
		StudentID:     in.StudentID,
		Service:       service,
		Attribution:   in.Attribution,
	}
	return nil
}

// NewServiceDetails builds the branch for a discriminant. An empty discriminant yields nil.
func NewServiceDetails(kind ServiceType, languages []string, pair LanguagePair) (ServiceDetails, error) {
	switch kind {
	case "":
		return nil, nil
	case ServiceLanguageTraining:
		return TrainingService{Languages: append([]string(nil), languages...)}, nil
	case ServiceDocTranslation:
		return TranslationService{Pair: pair}, nil
	case ServiceInterpretation:
		return InterpretationService{Pair: pair}, nil
	default:
		return nil, fmt.Errorf("unknown service type %q", kind)
	}
}

// ProspectFilter narrows prospect searches.
type ProspectFilter struct {
	ContactMethod ContactMethod
	ServiceType   ServiceType
	Status        ProspectStatus
	Search        string
	Window        timewindow.Window
	Custom        *timewindow.Range
	// Now anchors relative windows; zero means the current time.
	Now time.Time
}

// Client is the read-only view over everyone who became a paying customer:
// enrolled students and converted translation or interpretation jobs.
type Client struct {
	ClientID    string           `json:"clientId"`
	Kind        ClientKind       `json:"kind"`
	RefID       string           `json:"refId"`
	Name        string           `json:"name"`
	Email       *string          `json:"email,omitempty"`
	Phone       *string          `json:"phone,omitempty"`
	ServiceType ServiceType      `json:"serviceType"`
	Since       time.Time        `json:"since"`
	TotalFee    *decimal.Decimal `json:"totalFee,omitempty"`
}

// ClientKind distinguishes the two sources of clients.
type ClientKind string

const (
	ClientStudent ClientKind = "Student"
	ClientJob     ClientKind = "Job"
)

// JobClientID derives the visible id of a converted job client.
func JobClientID(prospectID string) string {
	prefix := prospectID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "C-" + prefix
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
