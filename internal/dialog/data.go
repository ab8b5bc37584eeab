package dialog

// Data bag keys. Wizard drafts live inside the session's open data map; each
// draft's keys are overwritten when its wizard restarts and the whole bag is
// cleared on logout.
const (
	dataToken     = "token"
	dataUserID    = "userId"
	dataFirstName = "firstName"
	dataLastName  = "lastName"
	dataEmail     = "email"
	dataPhone     = "phone"
	dataKYCStatus = "kycStatus"

	dataLoginEmail = "loginEmail"

	dataSignupPassword = "password"

	dataStreet              = "street"
	dataCity                = "city"
	dataPostalCode          = "postalCode"
	dataCountry             = "country"
	dataDOB                 = "dob"
	dataIdentityPath        = "identityPath"
	dataIdentityContentType = "identityContentType"
	dataUtilityPath         = "utilityPath"

	dataWalletID          = "walletId"
	dataAvailableGateways = "availableGateways"
	dataSelectedGateway   = "selectedPaymentGateway"
	dataWithdrawAmount    = "withdrawAmount"

	dataTransferOptions          = "transferOptions"
	dataTransferDestOptions      = "transferDestOptions"
	dataTransferSourceType       = "transferSourceType"
	dataTransferSourceID         = "transferSourceId"
	dataTransferSourceLabel      = "transferSourceLabel"
	dataTransferDestinationType  = "transferDestinationType"
	dataTransferDestinationID    = "transferDestinationId"
	dataTransferDestinationLabel = "transferDestinationLabel"
	dataTransferAmount           = "transferAmount"
	dataAvailableBalance         = "availableBalance"

	dataAccountName        = "accountName"
	dataProductStandardID  = "productStandardId"
	dataProductRawSpreadID = "productRawSpreadId"
)
