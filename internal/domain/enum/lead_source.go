package enum

// LeadSource records how a lead found the company.
type LeadSource string

const (
	LeadSourceWebsite       LeadSource = "website"
	LeadSourceReferral      LeadSource = "referral"
	LeadSourceSocialMedia   LeadSource = "social_media"
	LeadSourceEmailCampaign LeadSource = "email_campaign"
	LeadSourceEvent         LeadSource = "event"
	LeadSourceOther         LeadSource = "other"
)

var LeadSources = []LeadSource{
	LeadSourceWebsite,
	LeadSourceReferral,
	LeadSourceSocialMedia,
	LeadSourceEmailCampaign,
	LeadSourceEvent,
	LeadSourceOther,
}

func (s LeadSource) String() string {
	return string(s)
}

func (s LeadSource) IsValid() bool {
	for _, v := range LeadSources {
		if v == s {
			return true
		}
	}
	return false
}
