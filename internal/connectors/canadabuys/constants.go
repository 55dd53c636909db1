// Package canadabuys fetches tender notices from the CanadaBuys open data
// CSV feeds.
package canadabuys

// CanadaBuys CSV column names (bilingual headers from the open data files).
const (
	colReferenceNumber    = "referenceNumber-numeroReference"
	colSolicitationNumber = "solicitationNumber-numeroSollicitation"

	colTitleEng       = "title-titre-eng"
	colDescriptionEng = "tenderDescription-descriptionAppelOffres-eng"
	colNoticeURLEng   = "noticeURL-URLavis-eng"

	colContractingEntityEng = "contractingEntityName-nomEntitContractante-eng"

	colPublicationDate = "publicationDate-datePublication"
	colClosingDate     = "tenderClosingDate-appelOffresDateCloture"
	colAmendmentDate   = "amendmentDate-dateModification"

	colGSIN                = "gsin-nibs"
	colUNSPSC              = "unspsc"
	colProcurementCategory = "procurementCategory-categorieApprovisionnement"
	colTradeAgreementsEng  = "tradeAgreements-accordsCommerciaux-eng"

	colRegionsOpportunityEng = "regionsOfOpportunity-regionAppelOffres-eng"
	colRegionsDeliveryEng    = "regionsOfDelivery-regionsLivraison-eng"

	colAttachmentsEng  = "attachment-piecesJointes-eng"
	colTenderStatusEng = "tenderStatus-appelOffresStatut-eng"
)
